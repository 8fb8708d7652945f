package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/service"
	appErrors "github.com/noah-isme/student-records-api/pkg/errors"
	"github.com/noah-isme/student-records-api/pkg/export"
)

type studentServiceMock struct {
	err       error
	created   *service.CreateStudentRequest
	updatedID string
	updateReq models.StudentUpdate
}

func (m *studentServiceMock) List(ctx context.Context) ([]models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []models.Student{}, nil
}

func (m *studentServiceMock) Get(ctx context.Context, studentID string) (*models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Student{StudentID: studentID}, nil
}

func (m *studentServiceMock) Create(ctx context.Context, req service.CreateStudentRequest) (*models.Student, error) {
	m.created = &req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Student{ID: 1, StudentID: req.StudentID, PasswordHash: "secret-hash"}, nil
}

func (m *studentServiceMock) Update(ctx context.Context, studentID string, req models.StudentUpdate) (*models.Student, error) {
	m.updatedID = studentID
	m.updateReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Student{StudentID: studentID}, nil
}

func (m *studentServiceMock) Delete(ctx context.Context, studentID string) error {
	return m.err
}

type exporterMock struct{}

func (exporterMock) ExportStudents(ctx context.Context, format export.Format) (*service.ExportFile, error) {
	return &service.ExportFile{Filename: "students.csv", ContentType: format.ContentType(), Body: []byte("student_id\n")}, nil
}

func performStudentRequest(t *testing.T, svc *studentServiceMock, method, path, body string, params gin.Params, fn func(*StudentHandler, *gin.Context)) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewStudentHandler(svc, exporterMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, path, bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = params
	fn(h, c)
	return w
}

func TestStudentHandlerCreateInvalidBody(t *testing.T) {
	svc := &studentServiceMock{}
	w := performStudentRequest(t, svc, http.MethodPost, "/api/students", `invalid`, nil, (*StudentHandler).Create)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid payload"}`, w.Body.String())
	assert.Nil(t, svc.created)
}

func TestStudentHandlerCreateWrongType(t *testing.T) {
	svc := &studentServiceMock{}
	w := performStudentRequest(t, svc, http.MethodPost, "/api/students", `{"enrollment_year":"soon"}`, nil, (*StudentHandler).Create)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"enrollment_year has an invalid type"}`, w.Body.String())
}

func TestStudentHandlerCreateOmitsPasswordHash(t *testing.T) {
	svc := &studentServiceMock{}
	w := performStudentRequest(t, svc, http.MethodPost, "/api/students", `{"student_id":"STU001","password":"password123"}`, nil, (*StudentHandler).Create)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-hash")
	assert.NotContains(t, w.Body.String(), "password")
	require.NotNil(t, svc.created)
	assert.Equal(t, "password123", svc.created.Password)
}

func TestStudentHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", appErrors.Clone(appErrors.ErrValidation, "email must be a valid email"), http.StatusBadRequest, `{"error":"email must be a valid email"}`},
		{"not found", appErrors.Clone(appErrors.ErrNotFound, "student not found"), http.StatusNotFound, `{"error":"student not found"}`},
		{"conflict", appErrors.Clone(appErrors.ErrConflict, "student_id or email already exists"), http.StatusConflict, `{"error":"student_id or email already exists"}`},
		{"internal", appErrors.Clone(appErrors.ErrInternal, "failed to get student"), http.StatusInternalServerError, `{"error":"internal server error"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &studentServiceMock{err: tc.err}
			w := performStudentRequest(t, svc, http.MethodGet, "/api/students/STU001", "", gin.Params{{Key: "id", Value: "STU001"}}, (*StudentHandler).Get)
			assert.Equal(t, tc.status, w.Code)
			assert.JSONEq(t, tc.body, w.Body.String())
		})
	}
}

func TestStudentHandlerUpdatePassesPartialFields(t *testing.T) {
	svc := &studentServiceMock{}
	w := performStudentRequest(t, svc, http.MethodPut, "/api/students/STU001", `{"department":"Physics"}`, gin.Params{{Key: "id", Value: "STU001"}}, (*StudentHandler).Update)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "STU001", svc.updatedID)
	require.NotNil(t, svc.updateReq.Department)
	assert.Equal(t, "Physics", *svc.updateReq.Department)
	assert.Nil(t, svc.updateReq.Name)
}

func TestStudentHandlerDelete(t *testing.T) {
	svc := &studentServiceMock{}
	w := performStudentRequest(t, svc, http.MethodDelete, "/api/students/STU001", "", gin.Params{{Key: "id", Value: "STU001"}}, (*StudentHandler).Delete)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestStudentHandlerExportRejectsUnknownFormat(t *testing.T) {
	svc := &studentServiceMock{}
	w := performStudentRequest(t, svc, http.MethodGet, "/api/exports/students?format=xlsx", "", nil, (*StudentHandler).Export)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performStudentRequest(t, svc, http.MethodGet, "/api/exports/students", "", nil, (*StudentHandler).Export)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "students.csv")
}
