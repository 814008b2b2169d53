package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/coursecraft-api/internal/cli"
	"github.com/noah-isme/coursecraft-api/internal/dto"
	"github.com/noah-isme/coursecraft-api/internal/service"
	"github.com/noah-isme/coursecraft-api/pkg/config"
	appErrors "github.com/noah-isme/coursecraft-api/pkg/errors"
	"github.com/noah-isme/coursecraft-api/pkg/export"
)

var version = "dev"

type planOptions struct {
	plannerURL  string
	timeout     time.Duration
	program     string
	completed   string
	constraints dto.DegreePlanConstraints
	term        string
	courses     string
	preferences dto.TimetablePreferencesInput
	option      int
	format      string
	outDir      string
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "coursecraft",
		Short:         "Degree plan and timetable planning from the command line",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newPlanCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cli.Failure(os.Stderr, "%v", err)
		os.Exit(1)
	}
}

func newPlanCommand() *cobra.Command {
	opts := &planOptions{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate a degree plan, a timetable for one term, and export both",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.option < 1 {
				return fmt.Errorf("invalid argument %d for \"--option\" flag: options are numbered from 1", opts.option)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.plannerURL, "planner-url", "http://localhost:8000", "base URL of the degree planner and timetable solver")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "solver request timeout")
	flags.StringVar(&opts.program, "program", "", "degree program id")
	flags.StringVar(&opts.completed, "completed", "", "comma separated completed course codes")
	flags.StringVar(&opts.constraints.AllowedTerms, "allowed-terms", "", "comma separated allowed term ids")
	flags.StringVar(&opts.constraints.TargetGradTerm, "target-term", "", "target graduation term")
	flags.StringVar(&opts.constraints.MinCredits, "min-credits", "0", "minimum credits per term")
	flags.StringVar(&opts.constraints.MaxCredits, "max-credits", "2.5", "maximum credits per term")
	flags.StringVar(&opts.constraints.MaxTerms, "max-terms", "", "maximum number of terms")
	flags.StringVar(&opts.term, "term", "", "term to build a timetable for (defaults to the first planned term)")
	flags.StringVar(&opts.courses, "courses", "", "comma separated course codes (defaults to the term's planned courses)")
	flags.StringVar(&opts.preferences.EarliestTime, "earliest", "", "earliest start time HH:MM")
	flags.StringVar(&opts.preferences.LatestTime, "latest", "", "latest end time HH:MM")
	flags.BoolVar(&opts.preferences.AvoidFriday, "avoid-friday", false, "prefer timetables without Friday classes")
	flags.IntVar(&opts.option, "option", 1, "timetable option to select and export (1 based)")
	flags.StringVar(&opts.format, "format", "json", "timetable export format: json, csv or pdf")
	flags.StringVarP(&opts.outDir, "out", "o", ".", "directory for exported files")
	_ = cmd.MarkFlagRequired("program")
	_ = cmd.MarkFlagRequired("allowed-terms")

	return cmd
}

func runPlan(ctx context.Context, opts *planOptions) error {
	format, err := service.ParseExportFormat(opts.format)
	if err != nil {
		return err
	}

	solver := service.NewSolverClient(config.PlannerConfig{BaseURL: opts.plannerURL, Timeout: opts.timeout}, nil, zap.NewNop())
	exports := service.NewExportService(nil, nil, service.ExportConfig{}, zap.NewNop(), export.NewJSONExporter(), nil, nil)
	planning := service.NewPlanningService(solver, solver, nil, exports, service.InlineDispatcher{}, nil, service.PlanningServiceConfig{}, zap.NewNop())

	session := planning.CreateSession()
	out := os.Stdout

	if _, err := planning.SelectProgram(ctx, session.ID, &opts.program); err != nil {
		return err
	}
	if _, err := planning.SetCompletedCourses(ctx, session.ID, splitCodes(opts.completed)); err != nil {
		return err
	}

	planView, err := planning.SubmitDegreePlan(ctx, session.ID, opts.constraints)
	if err != nil {
		return describe(err)
	}
	if planView.Status == dto.RequestStatusFailed {
		return fmt.Errorf("degree plan failed: %s", deref(planView.Error))
	}
	cli.DegreePlan(out, planView)
	if len(planView.Terms) == 0 {
		return nil
	}

	term := opts.term
	if term == "" {
		term = planView.Terms[0].TermID
	}
	timetableView, err := planning.SubmitTimetable(ctx, session.ID, dto.GenerateTimetableRequest{
		TermID:      term,
		CourseCodes: splitCodes(opts.courses),
		Preferences: opts.preferences,
	})
	if err != nil {
		return describe(err)
	}
	if timetableView.Status == dto.RequestStatusFailed {
		return fmt.Errorf("timetable failed: %s", deref(timetableView.Error))
	}
	if opts.option > 1 {
		index := opts.option - 1
		if timetableView, err = planning.SelectTimetableOption(ctx, session.ID, &index); err != nil {
			return err
		}
	}
	cli.Timetable(out, timetableView)

	return writeExports(out, exports, session, format, opts.outDir)
}

func writeExports(out *os.File, exports *service.ExportService, session *service.PlanningSession, format service.ExportFormat, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	plan, err := exports.ExportPlan(session.Store.Snapshot().LastDegreePlan)
	if err != nil {
		return err
	}
	state := session.Timetables.State()
	timetable, err := exports.ExportTimetable(state.CurrentTermID, state.SelectedIndex, state.Options, format)
	if err != nil {
		return err
	}

	for _, artifact := range []*service.Artifact{plan, timetable} {
		if artifact == nil {
			continue
		}
		path := filepath.Join(dir, artifact.FileName)
		if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		cli.Success(out, "wrote %s", path)
	}
	return nil
}

func describe(err error) error {
	appErr := appErrors.FromError(err)
	if appErr.Field != "" {
		return fmt.Errorf("%s: %s", appErr.Field, appErr.Message)
	}
	return err
}

func splitCodes(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var codes []string
	for _, part := range strings.Split(raw, ",") {
		if code := strings.TrimSpace(part); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
