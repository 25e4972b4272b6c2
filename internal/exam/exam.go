// Package exam holds the pure scoring rules for a graded attempt.
package exam

import (
	"math"

	"github.com/everesteng/assessor/internal/model"
)

// Score counts the answers that match each question's correct option.
// Missing or out-of-range answers never count.
func Score(questions []model.Question, answers model.AnswerSet) int {
	score := 0
	for _, q := range questions {
		if chosen, ok := answers[q.ID]; ok && chosen == q.CorrectAnswer {
			score++
		}
	}
	return score
}

// Percentage returns round(score/total*100). An empty question set yields 0
// rather than a division error.
func Percentage(score, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// Answered counts the questions with an in-range answer.
func Answered(questions []model.Question, answers model.AnswerSet) int {
	n := 0
	for _, q := range questions {
		if chosen, ok := answers[q.ID]; ok && chosen >= 0 && chosen < len(q.Options) {
			n++
		}
	}
	return n
}

// Complete reports whether every question has an in-range answer.
// An empty question set is vacuously complete.
func Complete(questions []model.Question, answers model.AnswerSet) bool {
	return Answered(questions, answers) == len(questions)
}
