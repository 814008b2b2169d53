package main

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanCommandRejectsOptionBelowOne(t *testing.T) {
	for _, value := range []string{"0", "-2"} {
		value := value
		t.Run(value, func(t *testing.T) {
			cmd := newPlanCommand()
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)
			cmd.SetArgs([]string{"--program", "CS-BSc", "--allowed-terms", "2026-F", "--planner-url", "http://127.0.0.1:1", "--option", value})

			err := cmd.ExecuteContext(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "--option")
		})
	}
}

func TestSplitCodesDropsBlanks(t *testing.T) {
	assert.Nil(t, splitCodes("  "))
	assert.Equal(t, []string{"CS101", "MATH101"}, splitCodes(" CS101, ,MATH101"))
}
