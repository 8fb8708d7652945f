package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/student-records-api/internal/models"
)

var (
	// ErrNotFound is returned when no student matches the external identifier.
	ErrNotFound = errors.New("student not found")
	// ErrDuplicate is returned when a write violates the student_id or email unique constraint.
	ErrDuplicate = errors.New("student already exists")
)

const uniqueViolation = "23505"

// studentColumns is the read projection shared by every query; password_hash is never selected.
const studentColumns = "id, student_id, name, email, department, enrollment_year, created_at, updated_at"

// QueryObserver receives the latency of each statement.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB, observer QueryObserver) *StudentRepository {
	return &StudentRepository{db: db, observer: observer}
}

func (r *StudentRepository) observe(label string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveDBQuery(label, time.Since(start))
	}
}

// Create inserts a new student and fills in the generated id and timestamps.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	defer r.observe("students.create", time.Now())
	const query = `INSERT INTO students (student_id, name, email, password_hash, department, enrollment_year)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query,
		student.StudentID, student.Name, student.Email, student.PasswordHash, student.Department, student.EnrollmentYear)
	if err := row.Scan(&student.ID, &student.CreatedAt, &student.UpdatedAt); err != nil {
		return fmt.Errorf("create student: %w", translate(err))
	}
	return nil
}

// List returns every student, newest first.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	defer r.observe("students.list", time.Now())
	query := "SELECT " + studentColumns + " FROM students ORDER BY created_at DESC, id DESC"
	students := make([]models.Student, 0)
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByStudentID fetches a student by external identifier.
func (r *StudentRepository) FindByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	defer r.observe("students.find", time.Now())
	query := "SELECT " + studentColumns + " FROM students WHERE student_id = $1"
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, studentID); err != nil {
		return nil, fmt.Errorf("find student: %w", translate(err))
	}
	return &student, nil
}

// Update applies the non-nil fields and refreshes updated_at in the same
// statement, so the timestamp advances even where the trigger is absent.
func (r *StudentRepository) Update(ctx context.Context, studentID string, fields models.StudentUpdate) (*models.Student, error) {
	defer r.observe("students.update", time.Now())
	query := `UPDATE students SET
        name = COALESCE($1, name),
        email = COALESCE($2, email),
        department = COALESCE($3, department),
        enrollment_year = COALESCE($4, enrollment_year),
        updated_at = NOW()
        WHERE student_id = $5
        RETURNING ` + studentColumns
	var student models.Student
	err := r.db.GetContext(ctx, &student, query,
		nullString(fields.Name), nullString(fields.Email), nullString(fields.Department), nullInt(fields.EnrollmentYear), studentID)
	if err != nil {
		return nil, fmt.Errorf("update student: %w", translate(err))
	}
	return &student, nil
}

// Delete permanently removes a student.
func (r *StudentRepository) Delete(ctx context.Context, studentID string) error {
	defer r.observe("students.delete", time.Now())
	res, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE student_id = $1", studentID)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete student: %w", ErrNotFound)
	}
	return nil
}

// Ping reports whether the store is reachable.
func (r *StudentRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	return err
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
