package jobsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/phrazzld/lecgen/internal/domain"
)

// PYQReport is the body of a successful POST /analyze/pyq.
type PYQReport struct {
	TotalQuestions int        `json:"total_questions"`
	TopicsFound    int        `json:"topics_found"`
	Analysis       []PYQTopic `json:"analysis"`
	Summary        PYQSummary `json:"summary"`
}

// PYQTopic groups recurring questions under one detected topic.
type PYQTopic struct {
	Topic     string        `json:"topic"`
	Questions []PYQQuestion `json:"questions"`
	Resources PYQResources  `json:"resources"`
}

// PYQQuestion is one question with its importance class.
type PYQQuestion struct {
	Text       string `json:"text"`
	Importance string `json:"importance"`
	Frequency  int    `json:"frequency"`
	AIAnswer   string `json:"ai_answer,omitempty"`
}

// PYQResources are study links suggested for a topic.
type PYQResources struct {
	Videos     []VideoResource   `json:"videos"`
	Articles   []ArticleResource `json:"articles"`
	TotalCount int               `json:"total_count"`
	Message    string            `json:"message,omitempty"`
}

// VideoResource is a suggested lecture video.
type VideoResource struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Link      string `json:"link"`
	Thumbnail string `json:"thumbnail"`
	Duration  string `json:"duration"`
}

// ArticleResource is a suggested tutorial page.
type ArticleResource struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Platform string `json:"platform"`
}

// PYQSummary aggregates the analysis.
type PYQSummary struct {
	TotalQuestionsAnalyzed   int                 `json:"total_questions_analyzed"`
	NumberOfTopics           int                 `json:"number_of_topics"`
	AnalysisStatus           string              `json:"analysis_status"`
	TotalResourcesFound      int                 `json:"total_resources_found"`
	AverageQuestionsPerTopic float64             `json:"average_questions_per_topic"`
	ClassificationBreakdown  ImportanceBreakdown `json:"classification_breakdown"`
}

// ImportanceBreakdown counts questions per importance class.
type ImportanceBreakdown struct {
	Critical  int `json:"critical"`
	Important int `json:"important"`
	Standard  int `json:"standard"`
}

// AnalyzePYQ uploads question papers and a Drive folder link for topic
// analysis. The call is synchronous and may take minutes; callers bound
// it through the context. Service failures are *RequestError with the
// service detail preserved, including the 200 responses whose body only
// carries an "error" field.
func (c *Client) AnalyzePYQ(ctx context.Context, req domain.PYQRequest) (*PYQReport, error) {
	const op = "analyze pyq"

	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, contentType, err := encodePYQ(req)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}

	status, data, _, err := c.do(ctx, http.MethodPost, "/analyze/pyq", body, contentType)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	if !isSuccess(status) {
		return nil, requestError(op, status, data)
	}

	var failed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &failed); err == nil && failed.Error != "" {
		return nil, &RequestError{Op: op, StatusCode: status, Detail: failed.Error}
	}

	var report PYQReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, &RequestError{Op: op, StatusCode: status, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}

	c.logger.Debug("pyq analysis complete",
		"files", len(req.Files),
		"drive_link", req.DriveLink != "",
		"topics", report.TopicsFound,
		"questions", report.TotalQuestions)

	return &report, nil
}

func encodePYQ(req domain.PYQRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range req.Files {
		part, err := w.CreateFormFile("files", f.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode pyq files: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("failed to encode pyq files: %w", err)
		}
	}
	if link := strings.TrimSpace(req.DriveLink); link != "" {
		if err := w.WriteField("drive_link", link); err != nil {
			return nil, "", fmt.Errorf("failed to encode drive link: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to encode pyq request: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
