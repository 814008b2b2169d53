package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/coursecraft-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5555, User: "coursecraft", Password: "secret", Name: "coursecraft", SSLMode: "disable"})

	assert.Equal(t, "host=db port=5555 user=coursecraft password=secret dbname=coursecraft sslmode=disable", dsn)
}
