package model

import (
	"context"
	"time"
)

// NumOptions is the fixed number of answer options per question.
const NumOptions = 4

// Employee represents a self-registered test taker.
type Employee struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	Sector    string    `json:"sector"`
	Position  string    `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	// HasSubmitted is derived from submission existence at read time,
	// never stored on the employee row.
	HasSubmitted bool `json:"has_submitted"`
}

// Question represents one multiple-choice item with exactly one correct option.
type Question struct {
	ID            int64     `json:"id"`
	Text          string    `json:"question_text"`
	Options       []string  `json:"options"`
	CorrectAnswer int       `json:"correct_answer"`
	Category      string    `json:"category"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AnswerSet maps question IDs to the chosen option index.
type AnswerSet map[int64]int

// Submission is one employee's single graded attempt at the question set.
type Submission struct {
	ID          int64     `json:"id"`
	EmployeeID  int64     `json:"employee_id"`
	Answers     AnswerSet `json:"answers"`
	Score       int       `json:"score"`
	Feedback    string    `json:"feedback,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// SubmissionView joins a submission with its employee's current fields.
type SubmissionView struct {
	Submission
	Employee Employee `json:"employee"`
}

// AdminSession represents an authenticated admin browser session.
type AdminSession struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// TestInfo describes the single active test.
type TestInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// AppConfig holds runtime parameters set via CLI flags.
type AppConfig struct {
	DefaultLang   string
	SecureCookies bool // Set Secure flag on cookies (disable for local dev)
}

// QuestionImport is used for loading questions from JSON.
type QuestionImport struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Category      string   `json:"category"`
}

type adminCtxKey struct{}

// ContextWithAdminSession stores the admin session in the request context.
func ContextWithAdminSession(ctx context.Context, s *AdminSession) context.Context {
	return context.WithValue(ctx, adminCtxKey{}, s)
}

// AdminSessionFromContext retrieves the admin session from context, or nil.
func AdminSessionFromContext(ctx context.Context) *AdminSession {
	s, _ := ctx.Value(adminCtxKey{}).(*AdminSession)
	return s
}
