// Package jobsvctest provides a scriptable in-process job service for tests.
package jobsvctest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/lecgen/internal/domain"
	"github.com/phrazzld/lecgen/internal/jobsvc"
)

// Step is one scripted reply to a status request. A non-zero HTTPStatus or
// a Raw body simulates a broken response instead of a status.
type Step struct {
	Status     domain.TaskStatus
	Result     *domain.Result
	Error      string
	HTTPStatus int
	Raw        string
}

// Submission records what a client sent to /process.
type Submission struct {
	TaskID   string
	Kind     string
	URL      string
	Text     string
	Filename string
	Size     int
}

// PYQUpload records what a client sent to /analyze/pyq.
type PYQUpload struct {
	Filenames []string
	DriveLink string
}

type fakeTask struct {
	submission Submission
	script     []Step
	polls      int
	result     *domain.Result
	language   string
	name       string
	date       time.Time
}

type failure struct {
	code   int
	detail string
}

// Server is a fake job service on an httptest server.
type Server struct {
	URL string

	srv *httptest.Server

	mu            sync.Mutex
	script        []Step
	tasks         map[string]*fakeTask
	order         []string
	submissions   []Submission
	submitFail    *failure
	translateFail *failure
	pyqFail       *failure
	pyqReport     *jobsvc.PYQReport
	pyqUploads    []PYQUpload
}

// DefaultResult is the payload delivered by the default script.
func DefaultResult() *domain.Result {
	return &domain.Result{
		Title:      "Photosynthesis",
		Language:   "en",
		Notes:      "# Photosynthesis\nPlants convert light to chemical energy.",
		Transcript: "Photosynthesis converts light to energy",
		QA: []domain.QAItem{
			{Question: "What does photosynthesis produce?", Answer: "Glucose and oxygen", Type: "short"},
		},
		Quiz: []domain.QuizItem{
			{Type: "mcq", Question: "Which pigment absorbs light?", Options: []string{"Chlorophyll", "Keratin", "Melanin", "Hemoglobin"}, Correct: "Chlorophyll", Explanation: "Chlorophyll absorbs red and blue light."},
			{Type: "mcq", Question: "Where does photosynthesis occur?", Options: []string{"Mitochondria", "Chloroplast", "Nucleus", "Ribosome"}, Correct: "Chloroplast", Explanation: "Chloroplasts host the light reactions."},
			{Type: "mcq", Question: "Which gas is absorbed?", Options: []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Helium"}, Correct: "Carbon dioxide", Explanation: "CO2 is fixed in the Calvin cycle."},
			{Type: "mcq", Question: "Which gas is released?", Options: []string{"Oxygen", "Methane", "Argon", "Hydrogen"}, Correct: "Oxygen", Explanation: "Water splitting releases oxygen."},
			{Type: "mcq", Question: "What is the energy source?", Options: []string{"Heat", "Light", "Sound", "Wind"}, Correct: "Light", Explanation: "Light drives the reactions."},
		},
		Flashcards: []domain.Flashcard{
			{Front: "Chlorophyll", Back: "Green pigment that absorbs light"},
		},
	}
}

// DefaultPYQReport is the analysis returned for every accepted upload
// unless SetPYQReport replaces it.
func DefaultPYQReport() *jobsvc.PYQReport {
	return &jobsvc.PYQReport{
		TotalQuestions: 3,
		TopicsFound:    1,
		Analysis: []jobsvc.PYQTopic{
			{
				Topic: "Normalization",
				Questions: []jobsvc.PYQQuestion{
					{Text: "Explain 3NF with an example.", Importance: "Critical", Frequency: 3},
					{Text: "Define a functional dependency.", Importance: "Important", Frequency: 2},
					{Text: "What is BCNF?", Importance: "Standard", Frequency: 1},
				},
				Resources: jobsvc.PYQResources{
					Videos: []jobsvc.VideoResource{},
					Articles: []jobsvc.ArticleResource{
						{Title: "Database Normalization Forms", Link: "https://www.geeksforgeeks.org/database-normalization-introduction/", Platform: "GeeksforGeeks"},
					},
					TotalCount: 1,
				},
			},
		},
		Summary: jobsvc.PYQSummary{
			TotalQuestionsAnalyzed:   3,
			NumberOfTopics:           1,
			AnalysisStatus:           "Complete",
			TotalResourcesFound:      1,
			AverageQuestionsPerTopic: 3,
			ClassificationBreakdown:  jobsvc.ImportanceBreakdown{Critical: 1, Important: 1, Standard: 1},
		},
	}
}

// DefaultScript walks pending -> processing -> completed with DefaultResult.
func DefaultScript() []Step {
	return []Step{
		{Status: domain.TaskStatusPending},
		{Status: domain.TaskStatusProcessing},
		{Status: domain.TaskStatusCompleted, Result: DefaultResult()},
	}
}

// NewServer starts a fake job service that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		script: DefaultScript(),
		tasks:  make(map[string]*fakeTask),
	}

	r := chi.NewRouter()
	r.Get("/ping", s.handlePing)
	r.Post("/process/{kind}", s.handleProcess)
	r.Get("/tasks/{id}", s.handleStatus)
	r.Post("/translate/{id}", s.handleTranslate)
	r.Get("/history", s.handleHistory)
	r.Delete("/history/{id}", s.handleDeleteHistory)
	r.Get("/history/download/{id}", s.handleDownload)
	r.Post("/analyze/pyq", s.handleAnalyzePYQ)

	s.srv = httptest.NewServer(r)
	s.URL = s.srv.URL
	t.Cleanup(s.srv.Close)

	return s
}

// Close shuts the server down early, making every request fail.
func (s *Server) Close() {
	s.srv.Close()
}

// SetScript sets the status progression for tasks created afterwards. The
// last step repeats once the script is exhausted.
func (s *Server) SetScript(steps ...Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = steps
}

// FailSubmit makes every following submission fail with code and detail.
// An empty detail sends an error body without one.
func (s *Server) FailSubmit(code int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitFail = &failure{code: code, detail: detail}
}

// FailTranslate makes translations fail. A 2xx code replies with
// {"status":"failure"} instead of an error status.
func (s *Server) FailTranslate(code int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.translateFail = &failure{code: code, detail: detail}
}

// FailPYQ makes past-paper analysis fail. A 2xx code replies with an
// {"error": detail} body, as the analyzer does when nothing is extractable.
func (s *Server) FailPYQ(code int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pyqFail = &failure{code: code, detail: detail}
}

// SetPYQReport replaces the analysis returned for accepted uploads.
func (s *Server) SetPYQReport(report *jobsvc.PYQReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pyqReport = report
}

// PYQUploads returns every analysis request received, in order.
func (s *Server) PYQUploads() []PYQUpload {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PYQUpload, len(s.pyqUploads))
	copy(out, s.pyqUploads)
	return out
}

// AddCompleted seeds a completed task, as if it had been processed earlier.
func (s *Server) AddCompleted(kind domain.SourceKind, title string, result *domain.Result) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.tasks[id] = &fakeTask{
		submission: Submission{TaskID: id, Kind: string(kind)},
		script:     []Step{{Status: domain.TaskStatusCompleted, Result: result}},
		result:     result,
		language:   "en",
		name:       title,
		date:       time.Now(),
	}
	s.order = append(s.order, id)
	return id
}

// StatusCalls returns how many status requests were served for a task.
func (s *Server) StatusCalls(taskID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[taskID]; ok {
		return t.polls
	}
	return 0
}

// Submissions returns every accepted or rejected submission in order.
func (s *Server) Submissions() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Submission, len(s.submissions))
	copy(out, s.submissions)
	return out
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "There was an error parsing the body")
		return
	}

	sub := Submission{Kind: kind}
	var field string
	switch kind {
	case "youtube":
		field, sub.URL = "url", r.FormValue("url")
	case "text":
		field, sub.Text = "text", r.FormValue("text")
	case "file":
		field = "file"
		if f, hdr, err := r.FormFile("file"); err == nil {
			sub.Filename = hdr.Filename
			sub.Size = int(hdr.Size)
			_ = f.Close()
		}
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitFail != nil {
		s.submissions = append(s.submissions, sub)
		if s.submitFail.detail == "" {
			writeJSON(w, s.submitFail.code, map[string]string{})
			return
		}
		writeDetail(w, s.submitFail.code, s.submitFail.detail)
		return
	}

	if sub.URL == "" && sub.Text == "" && sub.Size == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{
				{"loc": []string{"body", field}, "msg": "field required", "type": "value_error.missing"},
			},
		})
		return
	}

	sub.TaskID = uuid.NewString()
	s.submissions = append(s.submissions, sub)
	s.tasks[sub.TaskID] = &fakeTask{
		submission: sub,
		script:     append([]Step(nil), s.script...),
		language:   "en",
		date:       time.Now(),
	}
	s.order = append(s.order, sub.TaskID)

	writeJSON(w, http.StatusOK, map[string]string{"task_id": sub.TaskID})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	t, ok := s.tasks[chi.URLParam(r, "id")]
	if !ok {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}

	step := Step{Status: domain.TaskStatusPending}
	if len(t.script) > 0 {
		idx := t.polls
		if idx >= len(t.script) {
			idx = len(t.script) - 1
		}
		step = t.script[idx]
	}
	t.polls++
	if step.Status == domain.TaskStatusCompleted && step.HTTPStatus == 0 && step.Raw == "" {
		t.result = step.Result
	}
	s.mu.Unlock()

	switch {
	case step.Raw != "":
		code := step.HTTPStatus
		if code == 0 {
			code = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(step.Raw))
	case step.HTTPStatus != 0:
		writeDetail(w, step.HTTPStatus, http.StatusText(step.HTTPStatus))
	default:
		body := map[string]any{"status": step.Status}
		if step.Result != nil {
			body["result"] = step.Result
		}
		if step.Error != "" {
			body["error"] = step.Error
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "There was an error parsing the body")
		return
	}
	lang := r.PostFormValue("target_lang")

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[chi.URLParam(r, "id")]
	if !ok || t.result == nil {
		writeDetail(w, http.StatusNotFound, "Task result not found")
		return
	}
	if lang == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "target_lang is required")
		return
	}

	if f := s.translateFail; f != nil {
		if f.code >= 200 && f.code < 300 {
			writeJSON(w, f.code, map[string]string{"status": "failure", "detail": f.detail})
			return
		}
		writeDetail(w, f.code, f.detail)
		return
	}

	translated := t.result.Clone()
	translated.Language = lang
	translated.Title = fmt.Sprintf("%s (%s)", t.result.Title, lang)
	t.result = translated
	t.language = lang

	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "result": translated})
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := []jobsvc.HistoryEntry{}
	for i := len(s.order) - 1; i >= 0; i-- {
		id := s.order[i]
		t, ok := s.tasks[id]
		if !ok || t.result == nil {
			continue
		}
		entries = append(entries, jobsvc.HistoryEntry{
			ID:        id,
			Title:     t.title(),
			Type:      t.submission.Kind,
			Date:      t.date.Format("2006-01-02 15:04:05"),
			Language:  t.language,
			WordCount: len(strings.Fields(t.result.Transcript)),
			Status:    domain.TaskStatusCompleted,
			Result:    t.result,
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	if _, ok := s.tasks[id]; !ok {
		writeDetail(w, http.StatusNotFound, "Item not found")
		return
	}
	delete(s.tasks, id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	t, ok := s.tasks[chi.URLParam(r, "id")]
	if !ok || t.result == nil {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Result not found")
		return
	}
	result := t.result.Clone()
	title := t.title()
	s.mu.Unlock()

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.json"`, safeName(title)))
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAnalyzePYQ(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "There was an error parsing the body")
		return
	}

	var upload PYQUpload
	for _, hdr := range r.MultipartForm.File["files"] {
		ext := strings.ToLower(hdr.Filename[strings.LastIndex(hdr.Filename, ".")+1:])
		switch ext {
		case "pdf", "docx", "txt", "csv":
			upload.Filenames = append(upload.Filenames, hdr.Filename)
		}
	}
	upload.DriveLink = strings.TrimSpace(r.FormValue("drive_link"))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pyqUploads = append(s.pyqUploads, upload)

	if len(upload.Filenames) == 0 && upload.DriveLink == "" {
		writeDetail(w, http.StatusBadRequest, "No valid files provided. Upload files or provide a valid Google Drive link.")
		return
	}
	if f := s.pyqFail; f != nil {
		if f.code >= 200 && f.code < 300 {
			writeJSON(w, f.code, map[string]string{"error": f.detail})
			return
		}
		writeDetail(w, f.code, f.detail)
		return
	}

	report := s.pyqReport
	if report == nil {
		report = DefaultPYQReport()
	}
	writeJSON(w, http.StatusOK, report)
}

func (t *fakeTask) title() string {
	if t.name != "" {
		return t.name
	}
	if t.result != nil && t.result.Title != "" {
		return t.result.Title
	}
	switch t.submission.Kind {
	case "youtube":
		return "YouTube: " + prefix(t.submission.URL, 30) + "..."
	case "file":
		return t.submission.Filename
	default:
		return "Notes: " + prefix(t.submission.Text, 30) + "..."
	}
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func safeName(title string) string {
	var b strings.Builder
	for _, r := range title {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}
