package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-records-api/internal/models"
	appErrors "github.com/noah-isme/student-records-api/pkg/errors"
	"github.com/noah-isme/student-records-api/pkg/export"
)

type studentLister interface {
	List(ctx context.Context) ([]models.Student, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

var studentExportHeaders = []string{"student_id", "name", "email", "department", "enrollment_year", "created_at", "updated_at"}

// ExportService renders the student list as CSV or PDF.
type ExportService struct {
	students  studentLister
	renderers map[export.Format]export.Renderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService wires the CSV and PDF renderers.
func NewExportService(students studentLister, csv, pdf export.Renderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		students: students,
		renderers: map[export.Format]export.Renderer{
			export.FormatCSV: csv,
			export.FormatPDF: pdf,
		},
		logger: logger,
		now:    time.Now,
	}
}

// ExportStudents renders every student in list order.
func (s *ExportService) ExportStudents(ctx context.Context, format export.Format) (*ExportFile, error) {
	renderer, ok := s.renderers[format]
	if !ok || renderer == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}

	table := export.Table{Title: "Student Records", Headers: studentExportHeaders, Rows: make([][]string, 0, len(students))}
	for _, st := range students {
		table.Rows = append(table.Rows, []string{
			st.StudentID,
			st.Name,
			st.Email,
			st.Department,
			strconv.Itoa(st.EnrollmentYear),
			st.CreatedAt.UTC().Format(time.RFC3339),
			st.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	body, err := renderer.Render(table)
	if err != nil {
		s.logger.Error("student export failed", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("students-%s.%s", s.now().UTC().Format("20060102-150405"), format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}
