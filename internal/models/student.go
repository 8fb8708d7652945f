package models

import "time"

// Enrollment year bounds accepted when a student is created.
const (
	MinEnrollmentYear = 2000
	MaxEnrollmentYear = 2024
)

// Student is a registered learner. PasswordHash is write-only: it is stored
// at creation and never selected back or serialised.
type Student struct {
	ID             int64     `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	Department     string    `db:"department" json:"department"`
	EnrollmentYear int       `db:"enrollment_year" json:"enrollment_year"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// StudentUpdate carries the mutable fields of a student. Nil fields keep
// their stored value.
type StudentUpdate struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	Department     *string `json:"department"`
	EnrollmentYear *int    `json:"enrollment_year"`
}
