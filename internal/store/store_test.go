package store

import (
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/everesteng/assessor/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustQuestion(t *testing.T, s *Store, correct int) model.Question {
	t.Helper()
	id, err := s.InsertQuestion(model.Question{
		Text:          "Qual função procura um valor em uma tabela?",
		Options:       []string{"SOMA", "PROCV", "MÉDIA", "SE"},
		CorrectAnswer: correct,
		Category:      "Fórmulas e Validações",
	})
	if err != nil {
		t.Fatalf("insert question: %v", err)
	}
	q, err := s.GetQuestion(id)
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	return q
}

func TestQuestionCRUD(t *testing.T) {
	s := newTestStore(t)

	q := mustQuestion(t, s, 1)
	if q.Text == "" || len(q.Options) != model.NumOptions {
		t.Fatalf("unexpected question after insert: %+v", q)
	}

	q.Text = "Qual função procura um valor na primeira coluna de uma tabela?"
	q.CorrectAnswer = 1
	if err := s.UpdateQuestion(q); err != nil {
		t.Fatalf("update question: %v", err)
	}
	got, err := s.GetQuestion(q.ID)
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if got.Text != q.Text {
		t.Errorf("update not applied: %q", got.Text)
	}

	count, err := s.QuestionCount()
	if err != nil || count != 1 {
		t.Fatalf("expected 1 question, got %d (err %v)", count, err)
	}

	if err := s.DeleteQuestion(q.ID); err != nil {
		t.Fatalf("delete question: %v", err)
	}
	questions, err := s.ListQuestions()
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(questions) != 0 {
		t.Errorf("expected no questions after delete, got %d", len(questions))
	}
}

func TestQuestionValidation(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name    string
		options []string
		correct int
	}{
		{"three options", []string{"A", "B", "C"}, 0},
		{"five options", []string{"A", "B", "C", "D", "E"}, 0},
		{"correct answer too high", []string{"A", "B", "C", "D"}, 4},
		{"negative correct answer", []string{"A", "B", "C", "D"}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.InsertQuestion(model.Question{
				Text:          "x",
				Options:       tt.options,
				CorrectAnswer: tt.correct,
				Category:      "Geral",
			})
			if !errors.Is(err, ErrInvalidQuestion) {
				t.Errorf("expected ErrInvalidQuestion, got %v", err)
			}
		})
	}
}

func TestUpdateMissingQuestion(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateQuestion(model.Question{
		ID:            42,
		Text:          "x",
		Options:       []string{"A", "B", "C", "D"},
		CorrectAnswer: 0,
		Category:      "Geral",
	})
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestEmployeeLifecycle(t *testing.T) {
	s := newTestStore(t)

	e, err := s.CreateEmployee("Maria Silva", "Financeiro", "Analista")
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	if e.ID == 0 {
		t.Fatal("expected a generated ID")
	}

	got, err := s.GetEmployee(e.ID)
	if err != nil {
		t.Fatalf("get employee: %v", err)
	}
	if got == nil || got.FullName != "Maria Silva" {
		t.Fatalf("unexpected employee: %+v", got)
	}
	if got.HasSubmitted {
		t.Error("employee without a submission must not be marked as submitted")
	}

	if err := s.UpdateEmployee(e.ID, "Maria Souza", "RH", "Coordenadora"); err != nil {
		t.Fatalf("update employee: %v", err)
	}
	got, err = s.GetEmployee(e.ID)
	if err != nil || got == nil {
		t.Fatalf("get employee after update: %v", err)
	}
	if got.FullName != "Maria Souza" || got.Sector != "RH" {
		t.Errorf("update not applied: %+v", got)
	}
	if got.HasSubmitted {
		t.Error("identity updates must not affect the derived submitted state")
	}

	if err := s.DeleteEmployee(e.ID); err != nil {
		t.Fatalf("delete employee: %v", err)
	}
	got, err = s.GetEmployee(e.ID)
	if err != nil {
		t.Fatalf("get employee after delete: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}

	if err := s.UpdateEmployee(999, "x", "y", "z"); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows for an unknown employee, got %v", err)
	}
}

func TestSubmissionLifecycle(t *testing.T) {
	s := newTestStore(t)
	q := mustQuestion(t, s, 1)
	e, err := s.CreateEmployee("João Souza", "TI", "Desenvolvedor")
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}

	answers := model.AnswerSet{q.ID: 1}
	id, err := s.CreateSubmission(e.ID, answers, 1)
	if err != nil {
		t.Fatalf("create submission: %v", err)
	}

	submitted, err := s.HasSubmitted(e.ID)
	if err != nil || !submitted {
		t.Fatalf("expected derived submitted state true, got %v (err %v)", submitted, err)
	}
	got, err := s.GetEmployee(e.ID)
	if err != nil || got == nil {
		t.Fatalf("get employee: %v", err)
	}
	if !got.HasSubmitted {
		t.Error("employee read must derive submitted state from the submission row")
	}

	// Second attempt hits the unique key.
	if _, err := s.CreateSubmission(e.ID, answers, 1); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}

	view, err := s.GetSubmission(id)
	if err != nil || view == nil {
		t.Fatalf("get submission: %v", err)
	}
	if view.Score != 1 || view.Answers[q.ID] != 1 {
		t.Errorf("unexpected submission: %+v", view)
	}
	if view.Employee.FullName != "João Souza" {
		t.Errorf("expected the joined employee, got %+v", view.Employee)
	}

	byEmployee, err := s.GetSubmissionByEmployee(e.ID)
	if err != nil || byEmployee == nil || byEmployee.ID != id {
		t.Fatalf("get submission by employee: %+v (err %v)", byEmployee, err)
	}

	// Deleting the employee is blocked while the submission exists.
	if err := s.DeleteEmployee(e.ID); !errors.Is(err, ErrEmployeeHasSubmission) {
		t.Fatalf("expected ErrEmployeeHasSubmission, got %v", err)
	}

	// Deleting the submission flips the derived state and allows a retake.
	if err := s.DeleteSubmission(id); err != nil {
		t.Fatalf("delete submission: %v", err)
	}
	submitted, err = s.HasSubmitted(e.ID)
	if err != nil || submitted {
		t.Fatalf("expected derived submitted state false after delete, got %v (err %v)", submitted, err)
	}
	if _, err := s.CreateSubmission(e.ID, answers, 1); err != nil {
		t.Fatalf("expected retake to succeed, got %v", err)
	}
}

func TestConcurrentDoubleSubmit(t *testing.T) {
	s := newTestStore(t)
	q := mustQuestion(t, s, 0)
	e, err := s.CreateEmployee("Ana Lima", "RH", "Assistente")
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateSubmission(e.ID, model.AnswerSet{q.ID: 0}, 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, duplicates int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrAlreadySubmitted):
			duplicates++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly one successful submission, got %d", successes)
	}
	if duplicates != attempts-1 {
		t.Errorf("expected %d duplicate rejections, got %d", attempts-1, duplicates)
	}
}

func TestListSubmissionsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	q := mustQuestion(t, s, 0)

	var ids []int64
	for _, name := range []string{"Primeiro", "Segundo", "Terceiro"} {
		e, err := s.CreateEmployee(name, "TI", "Analista")
		if err != nil {
			t.Fatalf("create employee: %v", err)
		}
		id, err := s.CreateSubmission(e.ID, model.AnswerSet{q.ID: 0}, 1)
		if err != nil {
			t.Fatalf("create submission: %v", err)
		}
		ids = append(ids, id)
	}

	views, err := s.ListSubmissions()
	if err != nil {
		t.Fatalf("list submissions: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("expected 3 submissions, got %d", len(views))
	}
	for i, v := range views {
		if want := ids[len(ids)-1-i]; v.ID != want {
			t.Errorf("position %d: expected submission %d, got %d", i, want, v.ID)
		}
	}
}

func TestFeedbackRoundTrip(t *testing.T) {
	s := newTestStore(t)
	q := mustQuestion(t, s, 0)
	e, err := s.CreateEmployee("Carlos Mota", "Vendas", "Consultor")
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	id, err := s.CreateSubmission(e.ID, model.AnswerSet{q.ID: 0}, 1)
	if err != nil {
		t.Fatalf("create submission: %v", err)
	}

	if err := s.UpdateFeedback(id, "Primeira análise."); err != nil {
		t.Fatalf("update feedback: %v", err)
	}
	// A regeneration replaces the text wholesale.
	if err := s.UpdateFeedback(id, "Análise revisada."); err != nil {
		t.Fatalf("update feedback again: %v", err)
	}
	view, err := s.GetSubmission(id)
	if err != nil || view == nil {
		t.Fatalf("get submission: %v", err)
	}
	if view.Feedback != "Análise revisada." {
		t.Errorf("expected replaced feedback, got %q", view.Feedback)
	}

	if err := s.UpdateFeedback(999, "x"); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows for an unknown submission, got %v", err)
	}
}

func TestAdminSessions(t *testing.T) {
	s := newTestStore(t)

	token, err := s.CreateAdminSession()
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("expected a 64-char hex token, got %d chars", len(token))
	}

	sess, err := s.GetAdminSession(token)
	if err != nil || sess == nil {
		t.Fatalf("get session: %+v (err %v)", sess, err)
	}
	if !sess.ExpiresAt.After(sess.CreatedAt) {
		t.Error("session must expire after creation")
	}

	if sess, err := s.GetAdminSession("unknown"); err != nil || sess != nil {
		t.Errorf("expected nil for unknown token, got %+v (err %v)", sess, err)
	}

	if err := s.DeleteAdminSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if sess, err := s.GetAdminSession(token); err != nil || sess != nil {
		t.Errorf("expected nil after delete, got %+v (err %v)", sess, err)
	}

	if err := s.CleanupExpiredSessions(); err != nil {
		t.Fatalf("cleanup sessions: %v", err)
	}
}

func TestMetadata(t *testing.T) {
	s := newTestStore(t)

	if v, err := s.GetMetadata("missing"); err != nil || v != "" {
		t.Fatalf("expected empty for missing key, got %q (err %v)", v, err)
	}
	if err := s.SetMetadata("k", "v1"); err != nil {
		t.Fatalf("set metadata: %v", err)
	}
	if err := s.SetMetadata("k", "v2"); err != nil {
		t.Fatalf("upsert metadata: %v", err)
	}
	if v, _ := s.GetMetadata("k"); v != "v2" {
		t.Errorf("expected upserted value, got %q", v)
	}

	info := model.TestInfo{Title: "Avaliação Excel", Description: "Teste de conhecimentos"}
	if err := s.SetTestInfo(info); err != nil {
		t.Fatalf("set test info: %v", err)
	}
	got, err := s.GetTestInfo()
	if err != nil || got != info {
		t.Errorf("expected %+v, got %+v (err %v)", info, got, err)
	}

	if err := s.SetAdminPasswordHash("hash"); err != nil {
		t.Fatalf("set password hash: %v", err)
	}
	if h, _ := s.GetAdminPasswordHash(); h != "hash" {
		t.Errorf("expected stored hash, got %q", h)
	}
}

func TestImportedFileHash(t *testing.T) {
	s := newTestStore(t)

	if h, err := s.GetImportedFileHash("questions.json"); err != nil || h != "" {
		t.Fatalf("expected empty for never-imported file, got %q (err %v)", h, err)
	}
	if err := s.SetImportedFileHash("questions.json", "abc"); err != nil {
		t.Fatalf("set hash: %v", err)
	}
	if err := s.SetImportedFileHash("questions.json", "def"); err != nil {
		t.Fatalf("upsert hash: %v", err)
	}
	if h, _ := s.GetImportedFileHash("questions.json"); h != "def" {
		t.Errorf("expected upserted hash, got %q", h)
	}
}

func TestExportAllSubmissions(t *testing.T) {
	s := newTestStore(t)
	q1 := mustQuestion(t, s, 1)
	_, err := s.InsertQuestion(model.Question{
		Text:          "Qual recurso resume grandes volumes de dados?",
		Options:       []string{"Filtro", "Tabela Dinâmica", "Classificação", "Gráfico"},
		CorrectAnswer: 1,
		Category:      "Análise com Tabelas Dinâmicas",
	})
	if err != nil {
		t.Fatalf("insert question: %v", err)
	}

	e, err := s.CreateEmployee("Sofia Prado", "Financeiro", "Analista")
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	// First question correct, second unanswered.
	subID, err := s.CreateSubmission(e.ID, model.AnswerSet{q1.ID: 1}, 1)
	if err != nil {
		t.Fatalf("create submission: %v", err)
	}
	if err := s.UpdateFeedback(subID, "Bom resultado."); err != nil {
		t.Fatalf("update feedback: %v", err)
	}

	results, err := s.ExportAllSubmissions()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.FullName != "Sofia Prado" || r.Score != 1 || r.TotalQuestions != 2 {
		t.Errorf("unexpected result header: %+v", r)
	}
	if r.Percentage != 50 {
		t.Errorf("expected 50%%, got %d", r.Percentage)
	}
	if r.Feedback != "Bom resultado." {
		t.Errorf("expected feedback in export, got %q", r.Feedback)
	}
	if len(r.Questions) != 2 {
		t.Fatalf("expected 2 question results, got %d", len(r.Questions))
	}
	if !r.Questions[0].Answered || !r.Questions[0].Correct {
		t.Errorf("first question should be answered and correct: %+v", r.Questions[0])
	}
	if r.Questions[0].ChosenOption != "PROCV" {
		t.Errorf("expected chosen option text, got %q", r.Questions[0].ChosenOption)
	}
	if r.Questions[1].Answered || r.Questions[1].Correct {
		t.Errorf("second question should be unanswered: %+v", r.Questions[1])
	}
	if r.Questions[1].CorrectOption != "Tabela Dinâmica" {
		t.Errorf("expected correct option text, got %q", r.Questions[1].CorrectOption)
	}
}
