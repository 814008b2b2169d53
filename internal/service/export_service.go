package service

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/coursecraft-api/internal/models"
	appErrors "github.com/noah-isme/coursecraft-api/pkg/errors"
	"github.com/noah-isme/coursecraft-api/pkg/export"
	"github.com/noah-isme/coursecraft-api/pkg/storage"
)

// ExportFormat selects the timetable artifact encoding.
type ExportFormat string

const (
	ExportFormatJSON ExportFormat = "json"
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
)

// PlanExportFileName is the fixed name of the degree plan artifact.
const PlanExportFileName = "coursecraft-degree-plan.json"

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Artifact is a rendered, self-contained export.
type Artifact struct {
	FileName    string
	ContentType string
	Data        []byte
}

// TimetableExport is the serialized shape of a selected timetable option.
type TimetableExport struct {
	TermID      string                    `json:"term_id"`
	OptionIndex int                       `json:"option_index"`
	Objective   models.TimetableObjective `json:"objective"`
	Sections    []models.TimetableSection `json:"sections"`
}

// ExportResult describes a stored artifact and its signed download link.
type ExportResult struct {
	FileName     string
	ContentType  string
	RelativePath string
	Token        string
	URL          string
	ExpiresAt    time.Time
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

type artifactStorage interface {
	Save(relPath string, data []byte) (string, error)
	Read(relPath string) ([]byte, error)
	Delete(relPath string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type jsonRenderer interface {
	Render(v interface{}) ([]byte, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportService renders plan and timetable artifacts and publishes them
// behind signed download links.
type ExportService struct {
	storage artifactStorage
	signer  *storage.SignedURLSigner
	json    jsonRenderer
	csv     datasetRenderer
	pdf     datasetRenderer
	logger  *zap.Logger
	cfg     ExportConfig
	newID   func() string
}

// NewExportService constructs an ExportService. Nil renderers fall back to the pkg/export defaults.
func NewExportService(store artifactStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, json jsonRenderer, csv, pdf datasetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if json == nil {
		json = export.NewJSONExporter()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		storage: store,
		signer:  signer,
		json:    json,
		csv:     csv,
		pdf:     pdf,
		logger:  logger,
		cfg:     cfg,
		newID:   uuid.NewString,
	}
}

// ParseExportFormat maps a query value to a format. Blank means JSON.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExportFormatJSON:
		return ExportFormatJSON, nil
	case ExportFormatCSV:
		return ExportFormatCSV, nil
	case ExportFormatPDF:
		return ExportFormatPDF, nil
	default:
		return "", appErrors.Field("format", fmt.Sprintf("unsupported export format %q", raw))
	}
}

// SafeFileComponent replaces every character outside [A-Za-z0-9_-] with '_'.
func SafeFileComponent(raw string) string {
	return unsafeFileChars.ReplaceAllString(raw, "_")
}

// TimetableFileName names the artifact for a term and zero based option index.
func TimetableFileName(termID string, index int, format ExportFormat) string {
	return fmt.Sprintf("coursecraft-timetable-%s-option-%d.%s", SafeFileComponent(termID), index+1, format)
}

// ExportPlan renders the degree plan as indented JSON. It returns nil when there is no plan.
func (s *ExportService) ExportPlan(plan *models.DegreePlan) (*Artifact, error) {
	if plan == nil {
		return nil, nil
	}
	data, err := s.json.Render(clonePlan(plan))
	if err != nil {
		return nil, fmt.Errorf("render degree plan: %w", err)
	}
	return &Artifact{FileName: PlanExportFileName, ContentType: "application/json", Data: data}, nil
}

// ExportTimetable renders the selected option. It returns nil when there is no
// current term, no selection, or the index is out of range.
func (s *ExportService) ExportTimetable(termID *string, index *int, options []models.TimetableOption, format ExportFormat) (*Artifact, error) {
	if termID == nil || index == nil {
		return nil, nil
	}
	i := *index
	if i < 0 || i >= len(options) {
		return nil, nil
	}
	option := options[i]
	name := TimetableFileName(*termID, i, format)

	switch format {
	case ExportFormatJSON, "":
		payload := TimetableExport{
			TermID:      *termID,
			OptionIndex: i,
			Objective:   option.Objective,
			Sections:    append([]models.TimetableSection{}, option.Sections...),
		}
		data, err := s.json.Render(payload)
		if err != nil {
			return nil, fmt.Errorf("render timetable json: %w", err)
		}
		return &Artifact{FileName: TimetableFileName(*termID, i, ExportFormatJSON), ContentType: "application/json", Data: data}, nil
	case ExportFormatCSV:
		data, err := s.csv.Render(timetableDataset(*termID, i, option))
		if err != nil {
			return nil, fmt.Errorf("render timetable csv: %w", err)
		}
		return &Artifact{FileName: name, ContentType: "text/csv", Data: data}, nil
	case ExportFormatPDF:
		data, err := s.pdf.Render(timetableDataset(*termID, i, option))
		if err != nil {
			return nil, fmt.Errorf("render timetable pdf: %w", err)
		}
		return &Artifact{FileName: name, ContentType: "application/pdf", Data: data}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %s", format)
	}
}

// Publish stores an artifact under a fresh directory of the owner's and signs a
// download link. Earlier links keep pointing at their own copy.
func (s *ExportService) Publish(ownerID string, artifact *Artifact) (*ExportResult, error) {
	if artifact == nil {
		return nil, fmt.Errorf("artifact nil")
	}
	relPath, err := s.storage.Save(path.Join(ownerID, s.newID(), artifact.FileName), artifact.Data)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(ownerID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Debug("export published", zap.String("owner_id", ownerID), zap.String("path", relPath))
	return &ExportResult{
		FileName:     artifact.FileName,
		ContentType:  artifact.ContentType,
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/%s", prefix, token),
		ExpiresAt:    expiresAt,
	}, nil
}

// Resolve validates a download token and loads the artifact it points at.
func (s *ExportService) Resolve(token string) (*Artifact, error) {
	signed, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download link")
	}
	data, err := s.storage.Read(signed.RelPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export not found")
	}
	name := path.Base(signed.RelPath)
	return &Artifact{FileName: name, ContentType: contentTypeFor(name), Data: data}, nil
}

// Cleanup removes artifacts older than ttl, or the configured ResultTTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func timetableDataset(termID string, index int, option models.TimetableOption) export.Dataset {
	rows := make([][]string, 0, len(option.Sections))
	placed := 0
	for _, day := range BucketByWeekday(option.Sections) {
		for _, section := range day.Sections {
			rows = append(rows, sectionRow(section))
			placed++
		}
	}
	if placed < len(option.Sections) {
		weekday := make(map[string]struct{}, len(Weekdays))
		for _, day := range Weekdays {
			weekday[day] = struct{}{}
		}
		for _, section := range option.Sections {
			if _, ok := weekday[section.DayOfWeek]; !ok {
				rows = append(rows, sectionRow(section))
			}
		}
	}
	title := fmt.Sprintf("Timetable %s option %d (%s)", termID, index+1, option.Objective.Status)
	if option.Objective.TotalPenalty != nil {
		title = fmt.Sprintf("%s penalty %.2f", title, *option.Objective.TotalPenalty)
	}
	return export.Dataset{
		Title:   title,
		Headers: []string{"Day", "Start", "End", "Course", "Kind", "Section"},
		Rows:    rows,
	}
}

func sectionRow(section models.TimetableSection) []string {
	return []string{
		section.DayOfWeek,
		FormatTimeLabel(section.StartTimeMinutes),
		FormatTimeLabel(section.EndTimeMinutes),
		section.CourseCode,
		section.Kind,
		section.SectionID,
	}
}

func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
