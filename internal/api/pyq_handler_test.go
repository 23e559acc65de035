package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/lecgen/internal/jobsvc"
	"github.com/phrazzld/lecgen/internal/jobsvc/jobsvctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postPYQ uploads papers (filename to content) and an optional drive link.
func postPYQ(t *testing.T, h http.Handler, papers map[string]string, driveLink string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range papers {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	if driveLink != "" {
		require.NoError(t, mw.WriteField("drive_link", driveLink))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/pyq/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAnalyzePYQ(t *testing.T) {
	t.Run("files are analyzed", func(t *testing.T) {
		b := newTestBridge(t)

		w := postPYQ(t, b.router, map[string]string{"dbms-2023.pdf": "%PDF-1.7"}, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		report := decode[jobsvc.PYQReport](t, w)
		assert.Equal(t, *jobsvctest.DefaultPYQReport(), report)

		uploads := b.fake.PYQUploads()
		require.Len(t, uploads, 1)
		assert.Equal(t, []string{"dbms-2023.pdf"}, uploads[0].Filenames)
		assert.Empty(t, uploads[0].DriveLink)
	})

	t.Run("drive link alone is enough", func(t *testing.T) {
		b := newTestBridge(t)

		w := postPYQ(t, b.router, nil, "https://drive.google.com/drive/folders/abc")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.Len(t, b.fake.PYQUploads(), 1)
		assert.Equal(t, "https://drive.google.com/drive/folders/abc", b.fake.PYQUploads()[0].DriveLink)
	})

	t.Run("nothing to analyze", func(t *testing.T) {
		b := newTestBridge(t)

		w := postPYQ(t, b.router, nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Upload PDF, DOCX, TXT or CSV files or provide a Google Drive link", errorMessage(t, w))
		assert.Empty(t, b.fake.PYQUploads())
	})

	t.Run("unsupported file type", func(t *testing.T) {
		b := newTestBridge(t)

		w := postPYQ(t, b.router, map[string]string{"scan.png": "\x89PNG"}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, b.fake.PYQUploads())
	})

	t.Run("analyzer detail passes through", func(t *testing.T) {
		b := newTestBridge(t)
		b.fake.FailPYQ(http.StatusOK, "Could not extract text from any provided files.")

		w := postPYQ(t, b.router, map[string]string{"notes.txt": "1. Define 2NF"}, "")
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "Could not extract text from any provided files.", errorMessage(t, w))
	})

	t.Run("not multipart", func(t *testing.T) {
		b := newTestBridge(t)

		w := do(t, b.router, http.MethodPost, "/api/pyq/analyze", map[string]string{"drive_link": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid request format", errorMessage(t, w))
	})
}
