package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/repository"
	appErrors "github.com/noah-isme/student-records-api/pkg/errors"
)

const (
	studentListCacheKey   = "students:list"
	studentCacheKeyPrefix = "students:id:"
)

type studentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	List(ctx context.Context) ([]models.Student, error)
	FindByStudentID(ctx context.Context, studentID string) (*models.Student, error)
	Update(ctx context.Context, studentID string, fields models.StudentUpdate) (*models.Student, error)
	Delete(ctx context.Context, studentID string) error
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	hasher    CredentialHasher
	validator *validator.Validate
	cache     *CacheService
	logger    *zap.Logger
}

// NewStudentService constructs the student service. cache may be nil.
func NewStudentService(repo studentRepository, hasher CredentialHasher, validate *validator.Validate, cache *CacheService, logger *zap.Logger) *StudentService {
	if hasher == nil {
		hasher = NewBcryptHasher(0)
	}
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, hasher: hasher, validator: validate, cache: cache, logger: logger}
}

// List returns every student, newest first.
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	var cached []models.Student
	hit, version := s.cache.Get(ctx, studentListCacheKey, &cached)
	if hit {
		return cached, nil
	}
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.fail("list", "", err)
	}
	s.cache.Set(ctx, studentListCacheKey, version, students)
	return students, nil
}

// Get returns the student with the given external identifier.
func (s *StudentService) Get(ctx context.Context, studentID string) (*models.Student, error) {
	var cached models.Student
	key := studentCacheKeyPrefix + studentID
	hit, version := s.cache.Get(ctx, key, &cached)
	if hit {
		return &cached, nil
	}
	student, err := s.repo.FindByStudentID(ctx, studentID)
	if err != nil {
		return nil, s.fail("get", studentID, err)
	}
	s.cache.Set(ctx, key, version, student)
	return student, nil
}

// Create validates the payload, hashes the credential and stores the student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := ValidateCreateStudent(s.validator, req); err != nil {
		return nil, s.fail("create", req.StudentID, err)
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, s.fail("create", req.StudentID, err)
	}
	student := &models.Student{
		StudentID:      req.StudentID,
		Name:           req.Name,
		Email:          req.Email,
		PasswordHash:   hash,
		Department:     req.Department,
		EnrollmentYear: req.EnrollmentYear,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, s.fail("create", req.StudentID, err)
	}
	s.cache.Invalidate(ctx, studentListCacheKey)
	student.PasswordHash = ""
	return student, nil
}

// Update applies the supplied fields without validating them; the
// credential hash is never touched.
func (s *StudentService) Update(ctx context.Context, studentID string, fields models.StudentUpdate) (*models.Student, error) {
	student, err := s.repo.Update(ctx, studentID, fields)
	if err != nil {
		return nil, s.fail("update", studentID, err)
	}
	s.cache.Invalidate(ctx, studentListCacheKey, studentCacheKeyPrefix+studentID)
	return student, nil
}

// Delete permanently removes a student.
func (s *StudentService) Delete(ctx context.Context, studentID string) error {
	if err := s.repo.Delete(ctx, studentID); err != nil {
		return s.fail("delete", studentID, err)
	}
	s.cache.Invalidate(ctx, studentListCacheKey, studentCacheKeyPrefix+studentID)
	return nil
}

// fail maps repository and validation errors to API errors and logs them.
func (s *StudentService) fail(operation, studentID string, err error) error {
	var (
		mapped *appErrors.Error
		level  = zapcore.ErrorLevel
	)
	switch {
	case appErrors.Is(err, appErrors.ErrValidation):
		mapped = appErrors.FromError(err)
		level = zapcore.InfoLevel
	case errors.Is(err, repository.ErrNotFound):
		mapped = appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "student not found")
		level = zapcore.InfoLevel
	case errors.Is(err, repository.ErrDuplicate):
		mapped = appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "student_id or email already exists")
		level = zapcore.WarnLevel
	default:
		mapped = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+operation+" student")
	}
	if ce := s.logger.Check(level, "student operation failed"); ce != nil {
		ce.Write(
			zap.String("operation", operation),
			zap.String("student_id", studentID),
			zap.String("code", mapped.Code),
			zap.Error(err),
		)
	}
	return mapped
}
