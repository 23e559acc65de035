package domain

// Result is the generated material for a completed task. Fields the client
// does not know about are dropped on decode.
type Result struct {
	Title      string      `json:"title,omitempty"`
	Language   string      `json:"language,omitempty"`
	Notes      string      `json:"notes"`
	Transcript string      `json:"transcript"`
	QA         []QAItem    `json:"qa"`
	Quiz       []QuizItem  `json:"quiz"`
	Flashcards []Flashcard `json:"flashcards"`
}

// QAItem is one curated question with its answer.
type QAItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Type     string `json:"type"`
}

// QuizItem is one generated assessment question as delivered by the job
// service. Options is only set for multiple choice items.
type QuizItem struct {
	Type        string   `json:"type"`
	Question    string   `json:"question"`
	Options     []string `json:"options,omitempty"`
	Correct     string   `json:"correct"`
	Explanation string   `json:"explanation"`
}

// Flashcard is one front/back study card.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Clone returns a deep copy so a result can be handed off by value.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	c := *r
	c.QA = append([]QAItem(nil), r.QA...)
	c.Flashcards = append([]Flashcard(nil), r.Flashcards...)
	if r.Quiz != nil {
		c.Quiz = make([]QuizItem, len(r.Quiz))
		for i, item := range r.Quiz {
			item.Options = append([]string(nil), item.Options...)
			c.Quiz[i] = item
		}
	}
	return &c
}
