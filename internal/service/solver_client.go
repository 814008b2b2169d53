package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/coursecraft-api/internal/models"
	"github.com/noah-isme/coursecraft-api/pkg/config"
	appErrors "github.com/noah-isme/coursecraft-api/pkg/errors"
	"github.com/noah-isme/coursecraft-api/pkg/middleware/requestid"
)

const (
	degreePlanPath = "/plan/degree/"
	timetablePath  = "/plan/timetable/"

	solverDegree    = "degree_planner"
	solverTimetable = "timetable_solver"

	maxSolverResponseBytes = 8 << 20
)

// SolverClient talks JSON over HTTP to the external degree planner and
// timetable solver. Every failure, including a response that does not match
// the expected schema, surfaces as an upstream error.
type SolverClient struct {
	baseURL  string
	client   *http.Client
	validate *validator.Validate
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewSolverClient builds a client for the configured planner base URL.
func NewSolverClient(cfg config.PlannerConfig, metrics *MetricsService, logger *zap.Logger) *SolverClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SolverClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		validate: validator.New(),
		metrics:  metrics,
		logger:   logger,
	}
}

// PlanDegree requests a multi-term degree plan.
func (c *SolverClient) PlanDegree(ctx context.Context, req models.DegreePlanRequest) (*models.DegreePlan, error) {
	var plan models.DegreePlan
	if err := c.post(ctx, solverDegree, degreePlanPath, req, &plan); err != nil {
		return nil, err
	}
	if plan.Warnings == nil {
		plan.Warnings = []string{}
	}
	return &plan, nil
}

// PlanTimetable requests ranked timetable options for one term.
func (c *SolverClient) PlanTimetable(ctx context.Context, req models.TimetableRequest) (*models.TimetableResponse, error) {
	var resp models.TimetableResponse
	if err := c.post(ctx, solverTimetable, timetablePath, req, &resp); err != nil {
		return nil, err
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	return &resp, nil
}

// Ping checks the planner health endpoint.
func (c *SolverClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return upstreamError("planner health check failed", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return upstreamError("planner health check failed", fmt.Errorf("received status %d", resp.StatusCode))
	}
	return nil
}

func (c *SolverClient) post(ctx context.Context, service, path string, body, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveSolverCall(service, err, time.Since(start))
	}()

	message := fmt.Sprintf("%s request failed", strings.ReplaceAll(service, "_", " "))

	payload, err := json.Marshal(body)
	if err != nil {
		return upstreamError(message, fmt.Errorf("encode request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return upstreamError(message, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.HeaderKey, id)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return upstreamError(message, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxSolverResponseBytes))
	if err != nil {
		return upstreamError(message, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("solver returned error status",
			zap.String("service", service), zap.Int("status", resp.StatusCode), zap.String("request_id", requestid.FromContext(ctx)))
		return upstreamError(message, fmt.Errorf("received status %d%s", resp.StatusCode, errorDetail(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return upstreamError(message, fmt.Errorf("decode response: %w", err))
	}
	if err := c.validate.Struct(out); err != nil {
		return upstreamError(message, fmt.Errorf("response schema: %w", err))
	}
	return nil
}

func errorDetail(raw []byte) string {
	var body struct {
		Detail interface{} `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Detail == nil {
		return ""
	}
	if s, ok := body.Detail.(string); ok {
		return ": " + s
	}
	return ""
}

func upstreamError(message string, err error) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, message)
}
