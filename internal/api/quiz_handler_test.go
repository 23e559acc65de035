package api

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/lecgen/internal/domain"
	"github.com/phrazzld/lecgen/internal/jobsvc/jobsvctest"
	"github.com/phrazzld/lecgen/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestQuizHandlerFlow(t *testing.T) {
	b := newTestBridge(t)
	b.book.Put("task-1", jobsvctest.DefaultResult())

	w := do(t, b.router, http.MethodPost, "/api/quizzes", StartQuizRequest{TaskID: "task-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	view := decode[service.QuizView](t, w)
	assert.Equal(t, 5, view.Total)
	assert.Equal(t, "Which pigment absorbs light?", view.Current.Prompt)
	assert.Empty(t, view.Current.CorrectAnswer)

	base := "/api/quizzes/" + view.ID.String()

	w = do(t, b.router, http.MethodPost, base+"/advance", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Answer or reveal the current question first", errorMessage(t, w))

	w = do(t, b.router, http.MethodPost, base+"/answer", AnswerRequest{Index: intPtr(2), Option: "Oxygen"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Only the current question can be answered", errorMessage(t, w))

	answers := []string{"Chlorophyll", "Chloroplast", "Carbon dioxide", "Methane", "Heat"}
	for i, option := range answers {
		w = do(t, b.router, http.MethodPost, base+"/answer", AnswerRequest{Index: intPtr(i), Option: option})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		answered := decode[service.QuizView](t, w)
		assert.True(t, answered.Revealed)
		assert.NotEmpty(t, answered.Current.Explanation)

		w = do(t, b.router, http.MethodPost, base+"/advance", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	view = decode[service.QuizView](t, w)
	assert.True(t, view.Finished)

	w = do(t, b.router, http.MethodGet, base+"/score", nil)
	require.Equal(t, http.StatusOK, w.Code)
	score := decode[ScoreResponse](t, w)
	assert.Equal(t, 3, score.CorrectCount)
	assert.Equal(t, 5, score.Total)
	assert.Equal(t, 60, score.Percentage)
	assert.False(t, score.Passed)

	w = do(t, b.router, http.MethodPost, base+"/retake", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[service.QuizView](t, w)
	assert.False(t, view.Finished)
	assert.Equal(t, 0, view.Answered)

	w = do(t, b.router, http.MethodGet, "/api/jobs/task-1/attempts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	attempts := decode[AttemptsResponse](t, w)
	require.Len(t, attempts.Attempts, 1)
	assert.Equal(t, 60, attempts.Attempts[0].Percentage)

	w = do(t, b.router, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, b.router, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuizHandlerErrors(t *testing.T) {
	b := newTestBridge(t)
	b.book.Put("empty", &domain.Result{Title: "No quiz"})
	b.book.Put("short", &domain.Result{Quiz: []domain.QuizItem{{Type: "short", Question: "Explain", Correct: "because"}}})

	tests := []struct {
		name           string
		method         string
		path           string
		body           any
		expectedStatus int
	}{
		{"missing task id", http.MethodPost, "/api/quizzes", map[string]string{}, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/quizzes", map[string]string{"task": "x"}, http.StatusBadRequest},
		{"unknown task", http.MethodPost, "/api/quizzes", StartQuizRequest{TaskID: "nope"}, http.StatusNotFound},
		{"result without quiz", http.MethodPost, "/api/quizzes", StartQuizRequest{TaskID: "empty"}, http.StatusUnprocessableEntity},
		{"invalid quiz id", http.MethodGet, "/api/quizzes/not-a-uuid", nil, http.StatusBadRequest},
		{"unknown quiz", http.MethodGet, "/api/quizzes/" + uuid.NewString(), nil, http.StatusNotFound},
		{"unknown quiz score", http.MethodGet, "/api/quizzes/" + uuid.NewString() + "/score", nil, http.StatusNotFound},
		{"end unknown quiz", http.MethodDelete, "/api/quizzes/" + uuid.NewString(), nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, b.router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}

	t.Run("free response is revealed not answered", func(t *testing.T) {
		w := do(t, b.router, http.MethodPost, "/api/quizzes", StartQuizRequest{TaskID: "short"})
		require.Equal(t, http.StatusCreated, w.Code)
		base := "/api/quizzes/" + decode[service.QuizView](t, w).ID.String()

		w = do(t, b.router, http.MethodPost, base+"/answer", AnswerRequest{Index: intPtr(0), Option: "x"})
		assert.Equal(t, http.StatusConflict, w.Code)

		w = do(t, b.router, http.MethodPost, base+"/answer", map[string]any{"option": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = do(t, b.router, http.MethodPost, base+"/reveal", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "because", decode[service.QuizView](t, w).Current.CorrectAnswer)

		w = do(t, b.router, http.MethodPost, base+"/advance", nil)
		require.Equal(t, http.StatusOK, w.Code)
		view := decode[service.QuizView](t, w)
		assert.True(t, view.Finished)
		assert.Equal(t, 0, view.Score.CorrectCount)
	})
}
