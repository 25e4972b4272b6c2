package store

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/everesteng/assessor/internal/model"
)

// CreateEmployee inserts a new employee and returns it with the generated ID.
func (s *Store) CreateEmployee(fullName, sector, position string) (model.Employee, error) {
	now := time.Now()
	res, err := s.db.Exec(
		`INSERT INTO employees (full_name, sector, position, created_at) VALUES (?, ?, ?, ?)`,
		fullName, sector, position, now,
	)
	if err != nil {
		slog.Error("failed to create employee", "full_name", fullName, "error", err)
		return model.Employee{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Employee{}, err
	}
	slog.Info("registered employee", "id", id, "full_name", fullName, "sector", sector)
	return model.Employee{
		ID:        id,
		FullName:  fullName,
		Sector:    sector,
		Position:  position,
		CreatedAt: now,
	}, nil
}

// GetEmployee returns an employee by ID, or nil if not found.
// HasSubmitted is derived from submission existence.
func (s *Store) GetEmployee(id int64) (*model.Employee, error) {
	var e model.Employee
	err := s.db.QueryRow(
		`SELECT e.id, e.full_name, e.sector, e.position, e.created_at,
		        EXISTS(SELECT 1 FROM submissions sub WHERE sub.employee_id = e.id)
		 FROM employees e WHERE e.id = ?`, id,
	).Scan(&e.ID, &e.FullName, &e.Sector, &e.Position, &e.CreatedAt, &e.HasSubmitted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEmployees returns all employees ordered by registration time, newest first.
func (s *Store) ListEmployees() ([]model.Employee, error) {
	rows, err := s.db.Query(
		`SELECT e.id, e.full_name, e.sector, e.position, e.created_at,
		        EXISTS(SELECT 1 FROM submissions sub WHERE sub.employee_id = e.id)
		 FROM employees e ORDER BY e.created_at DESC, e.id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var employees []model.Employee
	for rows.Next() {
		var e model.Employee
		if err := rows.Scan(&e.ID, &e.FullName, &e.Sector, &e.Position, &e.CreatedAt, &e.HasSubmitted); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// UpdateEmployee edits identity fields only. Submission state is untouched.
func (s *Store) UpdateEmployee(id int64, fullName, sector, position string) error {
	res, err := s.db.Exec(
		`UPDATE employees SET full_name = ?, sector = ?, position = ? WHERE id = ?`,
		fullName, sector, position, id,
	)
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

// DeleteEmployee removes an employee. It fails with ErrEmployeeHasSubmission
// when a submission still references the employee; delete the submission first.
func (s *Store) DeleteEmployee(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM submissions WHERE employee_id = ?)`, id,
	).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrEmployeeHasSubmission
	}
	if _, err := tx.Exec(`DELETE FROM employees WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// HasSubmitted reports whether a submission exists for the employee.
func (s *Store) HasSubmitted(employeeID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM submissions WHERE employee_id = ?)`, employeeID,
	).Scan(&exists)
	return exists, err
}
