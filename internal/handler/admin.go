package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/everesteng/assessor/internal/feedback"
	"github.com/everesteng/assessor/internal/model"
	"github.com/everesteng/assessor/internal/store"
)

func (h *Handler) handleAdminListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.store.ListQuestions()
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}
	respondJSON(w, http.StatusOK, questions)
}

type questionRequest struct {
	Text          string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Category      string   `json:"category"`
}

func (q questionRequest) valid() bool {
	if q.Text == "" || q.Category == "" {
		return false
	}
	for _, opt := range q.Options {
		if opt == "" {
			return false
		}
	}
	return true
}

func (h *Handler) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}
	if !req.valid() {
		h.respondError(w, r, http.StatusBadRequest, "FieldsRequired")
		return
	}

	id, err := h.store.InsertQuestion(model.Question{
		Text:          req.Text,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Category:      req.Category,
	})
	if errors.Is(err, store.ErrInvalidQuestion) {
		h.respondError(w, r, http.StatusBadRequest, "InvalidQuestion")
		return
	}
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}

	question, err := h.store.GetQuestion(id)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	respondJSON(w, http.StatusCreated, question)
}

func (h *Handler) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "questionID")
	if !ok {
		h.respondError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}
	if !req.valid() {
		h.respondError(w, r, http.StatusBadRequest, "FieldsRequired")
		return
	}

	err := h.store.UpdateQuestion(model.Question{
		ID:            id,
		Text:          req.Text,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Category:      req.Category,
	})
	if errors.Is(err, store.ErrInvalidQuestion) {
		h.respondError(w, r, http.StatusBadRequest, "InvalidQuestion")
		return
	}
	if err == sql.ErrNoRows {
		h.respondError(w, r, http.StatusNotFound, "QuestionNotFound")
		return
	}
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}

	question, err := h.store.GetQuestion(id)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	respondJSON(w, http.StatusOK, question)
}

func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "questionID")
	if !ok {
		h.respondError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}
	if err := h.store.DeleteQuestion(id); err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.store.ListEmployees()
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	if employees == nil {
		employees = []model.Employee{}
	}
	respondJSON(w, http.StatusOK, employees)
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "employeeID")
	if !ok {
		h.respondError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}
	if req.FullName == "" || req.Sector == "" || req.Position == "" {
		h.respondError(w, r, http.StatusBadRequest, "FieldsRequired")
		return
	}

	err := h.store.UpdateEmployee(id, req.FullName, req.Sector, req.Position)
	if err == sql.ErrNoRows {
		h.respondError(w, r, http.StatusNotFound, "EmployeeNotFound")
		return
	}
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}

	employee, err := h.store.GetEmployee(id)
	if err != nil || employee == nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	respondJSON(w, http.StatusOK, employee)
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "employeeID")
	if !ok {
		h.respondError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}
	err := h.store.DeleteEmployee(id)
	if errors.Is(err, store.ErrEmployeeHasSubmission) {
		h.respondError(w, r, http.StatusConflict, "EmployeeHasSubmission")
		return
	}
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	views, err := h.store.ListSubmissions()
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	if views == nil {
		views = []model.SubmissionView{}
	}
	respondJSON(w, http.StatusOK, views)
}

// handleDeleteSubmission removes the graded attempt; the owning employee's
// submitted state flips with it, so a retake becomes possible.
func (h *Handler) handleDeleteSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "submissionID")
	if !ok {
		h.respondError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}
	view, err := h.store.GetSubmission(id)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	if view == nil {
		h.respondError(w, r, http.StatusNotFound, "SubmissionNotFound")
		return
	}
	if err := h.store.DeleteSubmission(id); err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// beginGenerate marks a submission as having feedback generation in flight.
// It reports false when another request already holds the slot.
func (h *Handler) beginGenerate(id int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.generating[id] {
		return false
	}
	h.generating[id] = true
	return true
}

func (h *Handler) endGenerate(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.generating, id)
}

type feedbackResponse struct {
	Feedback string `json:"feedback"`
}

// handleGenerateFeedback composes the prompt from the stored submission and
// the current question set, relays it to the AI service, and replaces the
// stored feedback wholesale. One generation per submission at a time.
func (h *Handler) handleGenerateFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "submissionID")
	if !ok {
		h.respondError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}

	if !h.beginGenerate(id) {
		h.respondError(w, r, http.StatusConflict, "FeedbackInProgress")
		return
	}
	defer h.endGenerate(id)

	if h.feedback == nil {
		h.respondError(w, r, http.StatusInternalServerError, "FeedbackMissingKey")
		return
	}

	view, err := h.store.GetSubmission(id)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	if view == nil {
		h.respondError(w, r, http.StatusNotFound, "SubmissionNotFound")
		return
	}

	questions, err := h.store.ListQuestions()
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}

	infos := make([]feedback.QuestionInfo, 0, len(questions))
	for _, q := range questions {
		infos = append(infos, feedback.QuestionInfo{
			ID:            q.ID,
			Question:      q.Text,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Category:      q.Category,
		})
	}

	text, err := h.feedback.Generate(r.Context(), feedback.Request{
		EmployeeName:   view.Employee.FullName,
		Position:       view.Employee.Position,
		Sector:         view.Employee.Sector,
		Answers:        view.Answers,
		Questions:      infos,
		Score:          view.Score,
		TotalQuestions: len(questions),
	})
	if err != nil {
		h.respondFeedbackError(w, r, err)
		return
	}

	if err := h.store.UpdateFeedback(id, text); err != nil {
		slog.Error("failed to store feedback", "submission_id", id, "error", err)
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	respondJSON(w, http.StatusOK, feedbackResponse{Feedback: text})
}

// respondFeedbackError maps the feedback error taxonomy onto HTTP statuses
// and category-specific messages. Never a silent default.
func (h *Handler) respondFeedbackError(w http.ResponseWriter, r *http.Request, err error) {
	var fbErr *feedback.Error
	if !errors.As(err, &fbErr) {
		h.respondError(w, r, http.StatusBadGateway, "FeedbackUnavailable")
		return
	}
	switch fbErr.Category {
	case feedback.CategoryMissingKey:
		h.respondError(w, r, http.StatusInternalServerError, "FeedbackMissingKey")
	case feedback.CategoryRateLimit:
		h.respondError(w, r, http.StatusTooManyRequests, "FeedbackRateLimit")
	case feedback.CategoryQuota:
		h.respondError(w, r, http.StatusPaymentRequired, "FeedbackQuota")
	case feedback.CategoryInvalidKey:
		h.respondError(w, r, http.StatusBadGateway, "FeedbackInvalidKey")
	case feedback.CategoryNotFound:
		h.respondError(w, r, http.StatusBadGateway, "FeedbackNotFound")
	case feedback.CategoryAPIError:
		h.respondErrorData(w, r, http.StatusBadGateway, "FeedbackAPIError", map[string]any{"Code": fbErr.StatusCode})
	default:
		h.respondError(w, r, http.StatusServiceUnavailable, "FeedbackUnavailable")
	}
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	info, err := h.store.GetTestInfo()
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	count, err := h.store.QuestionCount()
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	results, err := h.store.ExportAllSubmissions()
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	respondJSON(w, http.StatusOK, model.AssessmentExport{
		Title:        info.Title,
		Description:  info.Description,
		GeneratedAt:  time.Now(),
		NumQuestions: count,
		Results:      results,
	})
}
