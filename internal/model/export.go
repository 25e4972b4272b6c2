package model

import "time"

// AssessmentExport is the top-level JSON structure for results export.
type AssessmentExport struct {
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	GeneratedAt  time.Time        `json:"generated_at"`
	NumQuestions int              `json:"num_questions"`
	Results      []EmployeeResult `json:"results"`
}

// EmployeeResult holds one employee's graded attempt for export.
type EmployeeResult struct {
	FullName       string           `json:"full_name"`
	Sector         string           `json:"sector"`
	Position       string           `json:"position"`
	Score          int              `json:"score"`
	TotalQuestions int              `json:"total_questions"`
	Percentage     int              `json:"percentage"`
	Feedback       string           `json:"feedback,omitempty"`
	SubmittedAt    time.Time        `json:"submitted_at"`
	Questions      []QuestionResult `json:"questions"`
}

// QuestionResult holds per-question correctness data for export.
type QuestionResult struct {
	Text          string `json:"text"`
	Category      string `json:"category"`
	ChosenOption  string `json:"chosen_option,omitempty"`
	CorrectOption string `json:"correct_option"`
	Answered      bool   `json:"answered"`
	Correct       bool   `json:"correct"`
}
