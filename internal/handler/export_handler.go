package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/coursecraft-api/internal/dto"
	"github.com/noah-isme/coursecraft-api/internal/service"
	"github.com/noah-isme/coursecraft-api/pkg/response"
)

type planningExports interface {
	ExportPlan(ctx context.Context, id string) (*service.ExportResult, error)
	ExportTimetable(ctx context.Context, id string, format service.ExportFormat) (*service.ExportResult, error)
}

type artifactResolver interface {
	Resolve(token string) (*service.Artifact, error)
}

// ExportHandler publishes plan and timetable artifacts and serves signed downloads.
type ExportHandler struct {
	planning planningExports
	exports  artifactResolver
}

// NewExportHandler constructs the handler.
func NewExportHandler(planning *service.PlanningService, exports *service.ExportService) *ExportHandler {
	return &ExportHandler{planning: planning, exports: exports}
}

// ExportPlan godoc
// @Summary Export the degree plan as JSON
// @Tags Exports
// @Produce json
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /session/exports/plan [post]
func (h *ExportHandler) ExportPlan(c *gin.Context) {
	result, err := h.planning.ExportPlan(c.Request.Context(), sessionIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, artifactResponse(result))
}

// ExportTimetable godoc
// @Summary Export the selected timetable option
// @Tags Exports
// @Produce json
// @Security BearerAuth
// @Param format query string false "json, csv or pdf"
// @Success 201 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /session/exports/timetable [post]
func (h *ExportHandler) ExportTimetable(c *gin.Context) {
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.planning.ExportTimetable(c.Request.Context(), sessionIDFromContext(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, artifactResponse(result))
}

// Download godoc
// @Summary Download an export through its signed token
// @Tags Exports
// @Produce application/json,text/csv,application/pdf
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	artifact, err := h.exports.Resolve(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, artifact.FileName, artifact.ContentType, artifact.Data)
}

func artifactResponse(result *service.ExportResult) dto.ExportArtifactResponse {
	return dto.ExportArtifactResponse{
		FileName:    result.FileName,
		ContentType: result.ContentType,
		DownloadURL: result.URL,
		ExpiresAt:   result.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
