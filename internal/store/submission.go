package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/everesteng/assessor/internal/model"
)

// CreateSubmission records a graded attempt for an employee. The unique key
// on employee_id enforces the at-most-one invariant; a duplicate insert
// surfaces as ErrAlreadySubmitted, not a generic failure.
func (s *Store) CreateSubmission(employeeID int64, answers model.AnswerSet, score int) (int64, error) {
	encoded, err := json.Marshal(answers)
	if err != nil {
		return 0, fmt.Errorf("marshal answers: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO submissions (employee_id, answers, score, submitted_at) VALUES (?, ?, ?, ?)`,
		employeeID, string(encoded), score, time.Now(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrAlreadySubmitted
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Info("created submission", "id", id, "employee_id", employeeID, "score", score)
	return id, nil
}

// GetSubmission returns a submission joined with its employee, or nil if not found.
func (s *Store) GetSubmission(id int64) (*model.SubmissionView, error) {
	return s.querySubmission(`WHERE sub.id = ?`, id)
}

// GetSubmissionByEmployee returns the employee's submission, or nil if none exists.
func (s *Store) GetSubmissionByEmployee(employeeID int64) (*model.SubmissionView, error) {
	return s.querySubmission(`WHERE sub.employee_id = ?`, employeeID)
}

func (s *Store) querySubmission(where string, arg any) (*model.SubmissionView, error) {
	var v model.SubmissionView
	var answers string
	err := s.db.QueryRow(
		`SELECT sub.id, sub.employee_id, sub.answers, sub.score, sub.feedback, sub.submitted_at,
		        e.id, e.full_name, e.sector, e.position, e.created_at
		 FROM submissions sub
		 JOIN employees e ON e.id = sub.employee_id `+where, arg,
	).Scan(
		&v.ID, &v.EmployeeID, &answers, &v.Score, &v.Feedback, &v.SubmittedAt,
		&v.Employee.ID, &v.Employee.FullName, &v.Employee.Sector, &v.Employee.Position, &v.Employee.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answers), &v.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	v.Employee.HasSubmitted = true
	return &v, nil
}

// ListSubmissions returns all submissions newest first, each joined with
// its employee's current fields.
func (s *Store) ListSubmissions() ([]model.SubmissionView, error) {
	rows, err := s.db.Query(
		`SELECT sub.id, sub.employee_id, sub.answers, sub.score, sub.feedback, sub.submitted_at,
		        e.id, e.full_name, e.sector, e.position, e.created_at
		 FROM submissions sub
		 JOIN employees e ON e.id = sub.employee_id
		 ORDER BY sub.submitted_at DESC, sub.id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var views []model.SubmissionView
	for rows.Next() {
		var v model.SubmissionView
		var answers string
		if err := rows.Scan(
			&v.ID, &v.EmployeeID, &answers, &v.Score, &v.Feedback, &v.SubmittedAt,
			&v.Employee.ID, &v.Employee.FullName, &v.Employee.Sector, &v.Employee.Position, &v.Employee.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &v.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers for submission %d: %w", v.ID, err)
		}
		v.Employee.HasSubmitted = true
		views = append(views, v)
	}
	return views, rows.Err()
}

// UpdateFeedback replaces the stored feedback text wholesale.
func (s *Store) UpdateFeedback(id int64, feedback string) error {
	res, err := s.db.Exec(`UPDATE submissions SET feedback = ? WHERE id = ?`, feedback, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteSubmission removes a graded attempt. Because the submitted state is
// derived from submission existence, the owning employee becomes eligible
// to take the test again as soon as this returns.
func (s *Store) DeleteSubmission(id int64) error {
	_, err := s.db.Exec(`DELETE FROM submissions WHERE id = ?`, id)
	if err == nil {
		slog.Info("deleted submission", "id", id)
	}
	return err
}

// SubmissionCount returns the total number of submissions.
func (s *Store) SubmissionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM submissions`).Scan(&count)
	return count, err
}
