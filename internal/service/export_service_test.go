package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/student-records-api/pkg/errors"
	"github.com/noah-isme/student-records-api/pkg/export"
)

func newExportServiceForTest(t *testing.T) *ExportService {
	t.Helper()
	students := newStudentServiceForTest(newMemoryStudentRepo(), zap.NewNop())
	for _, id := range []string{"STU001", "STU002"} {
		req := validCreateRequest()
		req.StudentID = id
		req.Email = strings.ToLower(id) + "@example.com"
		_, err := students.Create(context.Background(), req)
		require.NoError(t, err)
	}
	svc := NewExportService(students, export.NewCSVExporter(), export.NewPDFExporter(), zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	return svc
}

func TestExportServiceCSV(t *testing.T) {
	svc := newExportServiceForTest(t)

	file, err := svc.ExportStudents(context.Background(), export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "students-20240506-070809.csv", file.Filename)
	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "student_id,name,email,department,enrollment_year,created_at,updated_at", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "STU002,"))
	assert.NotContains(t, string(file.Body), "hashed:")
}

func TestExportServicePDF(t *testing.T) {
	svc := newExportServiceForTest(t)

	file, err := svc.ExportStudents(context.Background(), export.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF-")))
}

func TestExportServiceUnknownFormat(t *testing.T) {
	svc := newExportServiceForTest(t)

	_, err := svc.ExportStudents(context.Background(), export.Format("xml"))
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
