package grading

// Mode selects the drill a question belongs to.
type Mode string

const (
	ModeTense       Mode = "tense"
	ModePreposition Mode = "preposition"
)

// Request is a single answer submitted for grading.
type Request struct {
	Question        string `json:"question" validate:"required"`
	UserAnswer      string `json:"user_answer" validate:"required"`
	NextPreposition string `json:"next_preposition,omitempty" validate:"omitempty,max=32"`
	// TenseIndex is the rotation position of Question, when the page tracks it.
	TenseIndex *int `json:"tense_index,omitempty" validate:"omitempty,min=0,max=11"`
}

// Result is the composite payload returned to the page.
type Result struct {
	Text         string  `json:"text"`
	NextQuestion string  `json:"next_question"`
	CombinedText string  `json:"combined_text"`
	AudioBase64  *string `json:"audio_base64"`
}

// Feedback is what the parser extracts from a grading reply.
type Feedback struct {
	Feedback     string `json:"feedback"`
	NextQuestion string `json:"next_question"`
}

const nextQuestionSeparator = ". Next question: "

// CombinedText joins feedback and the follow-up question for speech synthesis.
func CombinedText(feedback, nextQuestion string) string {
	if nextQuestion == "" {
		return feedback
	}
	return feedback + nextQuestionSeparator + nextQuestion
}
