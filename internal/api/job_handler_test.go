package api

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/phrazzld/lecgen/internal/domain"
	"github.com/phrazzld/lecgen/internal/jobsvc"
	"github.com/phrazzld/lecgen/internal/service"
	"github.com/phrazzld/lecgen/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jobRouter(tracker JobTracker, results ResultService) http.Handler {
	return newRouter(Handlers{
		Jobs:    NewJobHandler(tracker, results, nil),
		Quizzes: NewQuizHandler(nil, nil),
		History: NewHistoryHandler(nil, nil, nil, nil),
		System:  NewSystemHandler(nil, configPreferences(), nil),
		PYQ:     NewPYQHandler(nil, nil),
	})
}

func postForm(t *testing.T, h http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSubmitJob(t *testing.T) {
	t.Parallel()

	t.Run("text submission", func(t *testing.T) {
		t.Parallel()
		var got domain.SubmissionInput
		tracker := &mockJobTracker{
			submitFn: func(_ context.Context, in domain.SubmissionInput) (*domain.Task, error) {
				got = in
				return domain.NewTask("task-1", in.Kind)
			},
			snapshotFn: func() task.Snapshot { return task.Snapshot{Phase: task.PhasePolling, Polling: true} },
		}

		w := postForm(t, jobRouter(tracker, nil), "/api/jobs/text", url.Values{"text": {"Photosynthesis converts light"}})

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, domain.NewTextInput("Photosynthesis converts light"), got)
		snap := decode[task.Snapshot](t, w)
		assert.Equal(t, task.PhasePolling, snap.Phase)
		assert.True(t, snap.Polling)
	})

	t.Run("youtube submission", func(t *testing.T) {
		t.Parallel()
		var got domain.SubmissionInput
		tracker := &mockJobTracker{
			submitFn: func(_ context.Context, in domain.SubmissionInput) (*domain.Task, error) {
				got = in
				return domain.NewTask("task-1", in.Kind)
			},
		}

		w := postForm(t, jobRouter(tracker, nil), "/api/jobs/youtube", url.Values{"url": {"https://youtu.be/abc"}})

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, domain.NewYouTubeInput("https://youtu.be/abc"), got)
	})

	t.Run("file upload", func(t *testing.T) {
		t.Parallel()
		var got domain.SubmissionInput
		tracker := &mockJobTracker{
			submitFn: func(_ context.Context, in domain.SubmissionInput) (*domain.Task, error) {
				got = in
				return domain.NewTask("task-1", in.Kind)
			},
		}

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", "lecture.mp3")
		require.NoError(t, err)
		_, err = part.Write([]byte("audio-bytes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/jobs/file", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		jobRouter(tracker, nil).ServeHTTP(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, domain.SourceKindFile, got.Kind)
		assert.Equal(t, "lecture.mp3", got.Filename)
		assert.Equal(t, []byte("audio-bytes"), got.File)
	})

	t.Run("unknown kind", func(t *testing.T) {
		t.Parallel()
		w := postForm(t, jobRouter(&mockJobTracker{}, nil), "/api/jobs/pdf", url.Values{"text": {"x"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Unknown source kind", errorMessage(t, w))
	})

	t.Run("invalid input", func(t *testing.T) {
		t.Parallel()
		tracker := &mockJobTracker{
			submitFn: func(_ context.Context, in domain.SubmissionInput) (*domain.Task, error) {
				return nil, in.Validate()
			},
		}
		w := postForm(t, jobRouter(tracker, nil), "/api/jobs/text", url.Values{"text": {"   "}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("service detail is passed through", func(t *testing.T) {
		t.Parallel()
		tracker := &mockJobTracker{
			submitFn: func(context.Context, domain.SubmissionInput) (*domain.Task, error) {
				return nil, &jobsvc.SubmissionError{StatusCode: 400, Detail: "Invalid YouTube URL"}
			},
		}
		w := postForm(t, jobRouter(tracker, nil), "/api/jobs/youtube", url.Values{"url": {"https://example.com"}})
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "Invalid YouTube URL", errorMessage(t, w))
	})

	t.Run("unreachable service uses the generic message", func(t *testing.T) {
		t.Parallel()
		tracker := &mockJobTracker{
			submitFn: func(context.Context, domain.SubmissionInput) (*domain.Task, error) {
				return nil, &jobsvc.SubmissionError{Err: errors.New("connection refused")}
			},
		}
		w := postForm(t, jobRouter(tracker, nil), "/api/jobs/text", url.Values{"text": {"notes"}})
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, jobsvc.GenericFailureMessage, errorMessage(t, w))
	})
}

func TestCurrentJob(t *testing.T) {
	t.Parallel()

	tracker := &mockJobTracker{
		snapshotFn: func() task.Snapshot {
			return task.Snapshot{Phase: task.PhaseFailed, Error: "Processing failed."}
		},
	}
	h := jobRouter(tracker, nil)

	w := do(t, h, http.MethodGet, "/api/jobs/current", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	snap := decode[task.Snapshot](t, w)
	assert.Equal(t, task.PhaseFailed, snap.Phase)
	assert.Equal(t, "Processing failed.", snap.Error)

	w = do(t, h, http.MethodDelete, "/api/jobs/current", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, tracker.cancelled)
}

func TestGetResult(t *testing.T) {
	t.Parallel()

	results := &mockResultService{
		getFn: func(_ context.Context, taskID string) (*domain.Result, error) {
			if taskID == "task-1" {
				return &domain.Result{Title: "Cells"}, nil
			}
			return nil, service.ErrResultNotFound
		},
	}
	h := jobRouter(&mockJobTracker{}, results)

	w := do(t, h, http.MethodGet, "/api/jobs/task-1/result", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Cells", decode[domain.Result](t, w).Title)

	w = do(t, h, http.MethodGet, "/api/jobs/other/result", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Result not found", errorMessage(t, w))
}

func TestTranslateResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           any
		translateErr   error
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "success",
			body:           TranslateRequest{TargetLang: "es"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing language",
			body:           map[string]string{},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid TargetLang: required field",
		},
		{
			name: "unsupported language",
			body: TranslateRequest{TargetLang: "xx"},
			translateErr: &jobsvc.TranslationError{
				TaskID: "task-1", Language: "xx", Err: domain.ErrUnsupportedLanguage,
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Unsupported target language",
		},
		{
			name: "service failure detail",
			body: TranslateRequest{TargetLang: "fr"},
			translateErr: &jobsvc.TranslationError{
				TaskID: "task-1", Language: "fr", StatusCode: 500, Detail: "Translation model overloaded",
			},
			expectedStatus: http.StatusBadGateway,
			expectedError:  "Translation model overloaded",
		},
		{
			name:           "unknown task",
			body:           TranslateRequest{TargetLang: "de"},
			translateErr:   service.ErrResultNotFound,
			expectedStatus: http.StatusNotFound,
			expectedError:  "Result not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := &mockResultService{
				translateFn: func(_ context.Context, taskID, lang string) (*domain.Result, error) {
					if tt.translateErr != nil {
						return nil, tt.translateErr
					}
					return &domain.Result{Title: "Células", Language: lang}, nil
				},
			}

			w := do(t, jobRouter(&mockJobTracker{}, results), http.MethodPost, "/api/jobs/task-1/translate", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, errorMessage(t, w))
				return
			}
			assert.Equal(t, "es", decode[domain.Result](t, w).Language)
		})
	}
}
