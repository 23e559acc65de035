package assessment

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/lecgen/internal/domain"
)

// QuestionType distinguishes auto-scored questions from free-response ones.
type QuestionType string

// Question types
const (
	QuestionTypeMCQ   QuestionType = "mcq"
	QuestionTypeShort QuestionType = "short"
	QuestionTypeCase  QuestionType = "case"
)

// IsFreeResponse reports whether answers to this type are self-assessed
// rather than scored.
func (t QuestionType) IsFreeResponse() bool {
	return t == QuestionTypeShort || t == QuestionTypeCase
}

// Question is one immutable item of a session.
type Question struct {
	Type          QuestionType `json:"type" validate:"required,oneof=mcq short case"`
	Prompt        string       `json:"prompt" validate:"required"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateQuestionOptions, Question{})
	return v
}

// validateQuestionOptions enforces that options exist exactly for MCQs.
func validateQuestionOptions(sl validator.StructLevel) {
	q := sl.Current().Interface().(Question)
	switch {
	case q.Type == QuestionTypeMCQ && len(q.Options) == 0:
		sl.ReportError(q.Options, "Options", "options", "required_for_mcq", "")
	case q.Type != QuestionTypeMCQ && len(q.Options) > 0:
		sl.ReportError(q.Options, "Options", "options", "mcq_only", "")
	}
}

// Validate checks the question shape.
func (q Question) Validate() error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}
	return nil
}

// IsCorrect compares an option against the canonical answer, ignoring case.
func (q Question) IsCorrect(option string) bool {
	return strings.EqualFold(option, q.CorrectAnswer)
}

// QuestionsFromQuiz converts the quiz portion of a generated result into
// session questions, preserving order. Items whose type is missing or
// unrecognised, and MCQs without options, are treated as free-response so
// one malformed item does not discard the quiz. Items with an empty prompt
// are kept and rejected by NewSession.
func QuestionsFromQuiz(items []domain.QuizItem) []Question {
	questions := make([]Question, 0, len(items))
	for _, item := range items {
		q := Question{
			Type:          normalizeType(item.Type, len(item.Options) > 0),
			Prompt:        strings.TrimSpace(item.Question),
			CorrectAnswer: item.Correct,
			Explanation:   item.Explanation,
		}
		if q.Type == QuestionTypeMCQ {
			q.Options = append([]string(nil), item.Options...)
		}
		questions = append(questions, q)
	}
	return questions
}

func normalizeType(raw string, hasOptions bool) QuestionType {
	switch QuestionType(strings.ToLower(strings.TrimSpace(raw))) {
	case QuestionTypeMCQ:
		if hasOptions {
			return QuestionTypeMCQ
		}
		return QuestionTypeShort
	case QuestionTypeCase:
		return QuestionTypeCase
	default:
		return QuestionTypeShort
	}
}
