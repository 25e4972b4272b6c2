package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/everesteng/assessor/internal/model"

	_ "modernc.org/sqlite"
)

var (
	// ErrAlreadySubmitted is returned when an employee already has a submission.
	ErrAlreadySubmitted = errors.New("employee already has a submission")
	// ErrEmployeeHasSubmission is returned when deleting an employee that a submission references.
	ErrEmployeeHasSubmission = errors.New("employee has an existing submission")
	// ErrInvalidQuestion is returned for questions without exactly four options
	// or with a correct answer index out of range.
	ErrInvalidQuestion = errors.New("question must have exactly 4 options and a correct answer in range")
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows a single writer; funnel everything through one connection
	// so the submissions unique key is the only arbiter of the double-submit race.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		full_name TEXT NOT NULL,
		sector TEXT NOT NULL,
		position TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		question_text TEXT NOT NULL,
		options TEXT NOT NULL,
		correct_answer INTEGER NOT NULL,
		category TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS submissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL UNIQUE,
		answers TEXT NOT NULL,
		score INTEGER NOT NULL,
		feedback TEXT NOT NULL DEFAULT '',
		submitted_at DATETIME NOT NULL,
		FOREIGN KEY (employee_id) REFERENCES employees(id)
	);

	CREATE TABLE IF NOT EXISTS admin_sessions (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS test_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		sha256 TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func validateQuestion(q model.Question) error {
	if len(q.Options) != model.NumOptions {
		return ErrInvalidQuestion
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= model.NumOptions {
		return ErrInvalidQuestion
	}
	return nil
}

// InsertQuestion stores a question.
func (s *Store) InsertQuestion(q model.Question) (int64, error) {
	if err := validateQuestion(q); err != nil {
		return 0, err
	}
	options, err := json.Marshal(q.Options)
	if err != nil {
		return 0, fmt.Errorf("marshal options: %w", err)
	}
	now := time.Now()
	res, err := s.db.Exec(
		`INSERT INTO questions (question_text, options, correct_answer, category, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		q.Text, string(options), q.CorrectAnswer, q.Category, now, now,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateQuestion replaces a question's fields by ID.
func (s *Store) UpdateQuestion(q model.Question) error {
	if err := validateQuestion(q); err != nil {
		return err
	}
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE questions SET question_text = ?, options = ?, correct_answer = ?, category = ?, updated_at = ?
		 WHERE id = ?`,
		q.Text, string(options), q.CorrectAnswer, q.Category, time.Now(), q.ID,
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

// DeleteQuestion removes a question by ID.
func (s *Store) DeleteQuestion(id int64) error {
	_, err := s.db.Exec(`DELETE FROM questions WHERE id = ?`, id)
	return err
}

// GetQuestion returns a question by ID.
func (s *Store) GetQuestion(id int64) (model.Question, error) {
	var q model.Question
	var options string
	err := s.db.QueryRow(
		`SELECT id, question_text, options, correct_answer, category, created_at, updated_at
		 FROM questions WHERE id = ?`, id,
	).Scan(&q.ID, &q.Text, &options, &q.CorrectAnswer, &q.Category, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return q, err
	}
	if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
		return q, fmt.Errorf("unmarshal options: %w", err)
	}
	return q, nil
}

// ListQuestions returns all questions ordered by ID.
func (s *Store) ListQuestions() ([]model.Question, error) {
	rows, err := s.db.Query(
		`SELECT id, question_text, options, correct_answer, category, created_at, updated_at
		 FROM questions ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var options string
		if err := rows.Scan(&q.ID, &q.Text, &options, &q.CorrectAnswer, &q.Category, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options for question %d: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// QuestionCount returns the number of questions in the database.
func (s *Store) QuestionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}
