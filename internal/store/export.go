package store

import (
	"fmt"

	"github.com/everesteng/assessor/internal/exam"
	"github.com/everesteng/assessor/internal/model"
)

// ExportAllSubmissions builds export-ready results for every submission,
// graded against the current question set.
func (s *Store) ExportAllSubmissions() ([]model.EmployeeResult, error) {
	views, err := s.ListSubmissions()
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	questions, err := s.ListQuestions()
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	var results []model.EmployeeResult
	for _, v := range views {
		var qResults []model.QuestionResult
		for _, q := range questions {
			qr := model.QuestionResult{
				Text:          q.Text,
				Category:      q.Category,
				CorrectOption: q.Options[q.CorrectAnswer],
			}
			if chosen, ok := v.Answers[q.ID]; ok && chosen >= 0 && chosen < len(q.Options) {
				qr.Answered = true
				qr.ChosenOption = q.Options[chosen]
				qr.Correct = chosen == q.CorrectAnswer
			}
			qResults = append(qResults, qr)
		}

		results = append(results, model.EmployeeResult{
			FullName:       v.Employee.FullName,
			Sector:         v.Employee.Sector,
			Position:       v.Employee.Position,
			Score:          v.Score,
			TotalQuestions: len(questions),
			Percentage:     exam.Percentage(v.Score, len(questions)),
			Feedback:       v.Feedback,
			SubmittedAt:    v.SubmittedAt,
			Questions:      qResults,
		})
	}
	return results, nil
}
