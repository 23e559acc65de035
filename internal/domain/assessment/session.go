package assessment

import (
	"fmt"

	"github.com/google/uuid"
)

// MaxQuestions caps how many questions a session holds. Longer inputs are
// truncated to their prefix.
const MaxQuestions = 20

// Answer is one ledger entry. IsCorrect is only meaningful for MCQs.
type Answer struct {
	SelectedOption string `json:"selected_option"`
	IsCorrect      bool   `json:"is_correct"`
}

// Session is one run-through of a question set.
//
// Per slot: Unanswered -> Answered (terminal for the slot).
// Per session: InProgress(cursor) -> InProgress(cursor+1) -> ... -> Finished.
// The cursor never moves backwards and ledger entries are never overwritten,
// except by Retake which resets the whole run.
type Session struct {
	id        uuid.UUID
	questions []Question
	cursor    int
	ledger    map[int]Answer
	revealed  bool
	finished  bool
}

// NewSession loads questions into a fresh session. Only the first
// MaxQuestions are kept, in their original order.
func NewSession(questions []Question) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrEmptyInput
	}

	if len(questions) > MaxQuestions {
		questions = questions[:MaxQuestions]
	}

	loaded := make([]Question, len(questions))
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		q.Options = append([]string(nil), q.Options...)
		loaded[i] = q
	}

	return &Session{
		id:        uuid.New(),
		questions: loaded,
		ledger:    make(map[int]Answer),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Len returns the number of questions in the session.
func (s *Session) Len() int { return len(s.questions) }

// Cursor returns the index of the current question.
func (s *Session) Cursor() int { return s.cursor }

// Finished reports whether the last question has been advanced past.
func (s *Session) Finished() bool { return s.finished }

// ExplanationRevealed reports whether the current question's explanation
// may be shown.
func (s *Session) ExplanationRevealed() bool { return s.revealed }

// Question returns the question at index i.
func (s *Session) Question(i int) (Question, bool) {
	if i < 0 || i >= len(s.questions) {
		return Question{}, false
	}
	return s.questions[i], true
}

// Questions returns a copy of the loaded questions.
func (s *Session) Questions() []Question {
	out := make([]Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// AnswerAt returns the ledger entry for index i, if any.
func (s *Session) AnswerAt(i int) (Answer, bool) {
	a, ok := s.ledger[i]
	return a, ok
}

// Ledger returns a copy of the answer ledger.
func (s *Session) Ledger() map[int]Answer {
	out := make(map[int]Answer, len(s.ledger))
	for k, v := range s.ledger {
		out[k] = v
	}
	return out
}

// Answer records the selected option for the current MCQ.
//
// Answering any index other than the cursor fails with ErrOutOfOrder.
// Answering an already answered index is a no-op so that double-fired UI
// events cannot change the first answer. A successful answer makes the
// explanation visible.
func (s *Session) Answer(index int, selectedOption string) error {
	if index != s.cursor {
		return ErrOutOfOrder
	}

	if _, answered := s.ledger[index]; answered {
		return nil
	}

	q := s.questions[index]
	if q.Type != QuestionTypeMCQ {
		return ErrNotMultipleChoice
	}

	s.ledger[index] = Answer{
		SelectedOption: selectedOption,
		IsCorrect:      q.IsCorrect(selectedOption),
	}
	s.revealed = true
	return nil
}

// Reveal shows the explanation for the current question. Free-response
// questions are revealed without any correctness being computed; an MCQ can
// only be revealed once it has been answered.
func (s *Session) Reveal() error {
	q := s.questions[s.cursor]
	if q.Type == QuestionTypeMCQ {
		if _, answered := s.ledger[s.cursor]; !answered {
			return ErrNotReady
		}
	}
	s.revealed = true
	return nil
}

// Advance moves to the next question, or finishes the session when the
// cursor is on the last one. The current question must have been answered
// (MCQ) or revealed (free response); otherwise ErrNotReady is returned and
// nothing changes. Advancing a finished session is a no-op.
func (s *Session) Advance() error {
	if s.finished {
		return nil
	}

	if !s.currentComplete() {
		return ErrNotReady
	}

	if s.cursor < len(s.questions)-1 {
		s.cursor++
		s.revealed = false
		return nil
	}

	s.finished = true
	return nil
}

func (s *Session) currentComplete() bool {
	if _, answered := s.ledger[s.cursor]; answered {
		return true
	}
	return s.questions[s.cursor].Type.IsFreeResponse() && s.revealed
}

// Retake resets the run while keeping the same questions in the same order.
func (s *Session) Retake() {
	s.cursor = 0
	s.ledger = make(map[int]Answer)
	s.revealed = false
	s.finished = false
}

// Score projects the ledger into a score. It is safe to call at any time
// and reflects partial progress before the session finishes.
func (s *Session) Score() Score {
	correct := 0
	for _, a := range s.ledger {
		if a.IsCorrect {
			correct++
		}
	}
	return NewScore(correct, len(s.questions))
}
