package model

// Option letters. OptionUnanswered is the placeholder written for questions
// left blank; it is only ever added when a submission is built.
const (
	OptionA          = "A"
	OptionB          = "B"
	OptionC          = "C"
	OptionD          = "D"
	OptionUnanswered = "E"
)

// Options lists the selectable option letters in display order.
var Options = []string{OptionA, OptionB, OptionC, OptionD}

// IsOption reports whether letter is one of A–D.
func IsOption(letter string) bool {
	switch letter {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// Question is a single multiple-choice exam question as served to learners.
type Question struct {
	ID           int    `json:"id"`
	QuestionText string `json:"questionText"`
	OptionA      string `json:"optionA"`
	OptionB      string `json:"optionB"`
	OptionC      string `json:"optionC"`
	OptionD      string `json:"optionD"`
}

// Option returns the text for an option letter, or "" for unknown letters.
func (q Question) Option(letter string) string {
	switch letter {
	case OptionA:
		return q.OptionA
	case OptionB:
		return q.OptionB
	case OptionC:
		return q.OptionC
	case OptionD:
		return q.OptionD
	}
	return ""
}

// BankQuestion is a question row including its answer. Never sent to learners.
type BankQuestion struct {
	Question
	CourseID      int    `json:"course_id"`
	CorrectOption string `json:"correct_option"`
}
