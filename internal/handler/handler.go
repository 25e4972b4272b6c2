package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/everesteng/assessor/internal/exam"
	"github.com/everesteng/assessor/internal/feedback"
	appI18n "github.com/everesteng/assessor/internal/i18n"
	"github.com/everesteng/assessor/internal/model"
	"github.com/everesteng/assessor/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	feedback *feedback.Client
	config   model.AppConfig

	mu         sync.Mutex
	generating map[int64]bool
}

// New creates a new Handler. feedback may be nil when no API key is
// configured; generation requests then fail with a configuration error.
func New(s *store.Store, fb *feedback.Client, cfg model.AppConfig) *Handler {
	return &Handler{
		store:      s,
		feedback:   fb,
		config:     cfg,
		generating: make(map[int64]bool),
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/test", h.handleTestInfo)
	r.Get("/api/questions", h.handleListQuestions)
	r.Post("/api/employees", h.handleRegister)
	r.Get("/api/employees/{employeeID}/submission", h.handleEmployeeSubmission)
	r.Post("/api/submissions", h.handleSubmit)

	r.Post("/api/admin/login", h.handleLogin)
	r.Route("/api/admin", func(admin chi.Router) {
		admin.Use(h.requireAdmin)
		admin.Post("/logout", h.handleLogout)
		admin.Get("/questions", h.handleAdminListQuestions)
		admin.Post("/questions", h.handleCreateQuestion)
		admin.Put("/questions/{questionID}", h.handleUpdateQuestion)
		admin.Delete("/questions/{questionID}", h.handleDeleteQuestion)
		admin.Get("/employees", h.handleListEmployees)
		admin.Put("/employees/{employeeID}", h.handleUpdateEmployee)
		admin.Delete("/employees/{employeeID}", h.handleDeleteEmployee)
		admin.Get("/submissions", h.handleListSubmissions)
		admin.Delete("/submissions/{submissionID}", h.handleDeleteSubmission)
		admin.Post("/submissions/{submissionID}/feedback", h.handleGenerateFeedback)
		admin.Get("/export", h.handleExport)
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	respondJSON(w, status, errorResponse{Error: appI18n.T(r.Context(), msgID)})
}

func (h *Handler) respondErrorData(w http.ResponseWriter, r *http.Request, status int, msgID string, data map[string]any) {
	respondJSON(w, status, errorResponse{Error: appI18n.Td(r.Context(), msgID, data)})
}

func urlID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil
}

func (h *Handler) handleTestInfo(w http.ResponseWriter, r *http.Request) {
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
	respondJSON(w, http.StatusOK, struct {
		model.TestInfo
		NumQuestions int `json:"num_questions"`
	}{info, count})
}

// publicQuestion is the question wire shape for test takers: the correct
// answer is redacted.
type publicQuestion struct {
	ID       int64    `json:"id"`
	Text     string   `json:"question_text"`
	Options  []string `json:"options"`
	Category string   `json:"category"`
}

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.store.ListQuestions()
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	public := make([]publicQuestion, 0, len(questions))
	for _, q := range questions {
		public = append(public, publicQuestion{
			ID:       q.ID,
			Text:     q.Text,
			Options:  q.Options,
			Category: q.Category,
		})
	}
	respondJSON(w, http.StatusOK, public)
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Sector   string `json:"sector"`
	Position string `json:"position"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Sector = strings.TrimSpace(req.Sector)
	req.Position = strings.TrimSpace(req.Position)
	if req.FullName == "" || req.Sector == "" || req.Position == "" {
		h.respondError(w, r, http.StatusBadRequest, "FieldsRequired")
		return
	}

	employee, err := h.store.CreateEmployee(req.FullName, req.Sector, req.Position)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	respondJSON(w, http.StatusCreated, employee)
}

func (h *Handler) handleEmployeeSubmission(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := urlID(r, "employeeID")
	if !ok {
		h.respondError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}
	view, err := h.store.GetSubmissionByEmployee(employeeID)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	if view == nil {
		h.respondError(w, r, http.StatusNotFound, "SubmissionNotFound")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

type submitRequest struct {
	EmployeeID int64           `json:"employee_id"`
	Answers    model.AnswerSet `json:"answers"`
}

// handleSubmit grades the attempt against the current question set and
// records it. The score is computed server-side; the client's own count is
// never trusted.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}

	employee, err := h.store.GetEmployee(req.EmployeeID)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	if employee == nil {
		h.respondError(w, r, http.StatusNotFound, "EmployeeNotFound")
		return
	}

	questions, err := h.store.ListQuestions()
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	if len(questions) == 0 {
		h.respondError(w, r, http.StatusBadRequest, "NoQuestions")
		return
	}
	if !exam.Complete(questions, req.Answers) {
		h.respondError(w, r, http.StatusBadRequest, "IncompleteAnswers")
		return
	}

	score := exam.Score(questions, req.Answers)
	id, err := h.store.CreateSubmission(req.EmployeeID, req.Answers, score)
	if err == store.ErrAlreadySubmitted {
		h.respondError(w, r, http.StatusConflict, "AlreadySubmitted")
		return
	}
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}

	view, err := h.store.GetSubmission(id)
	if err != nil || view == nil {
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	respondJSON(w, http.StatusCreated, view)
}
