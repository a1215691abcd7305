// Package seed loads course question banks from YAML files.
package seed

import "github.com/stemsi/exstem-learn/internal/model"

// Bank is one course and its questions as written in a bank file.
type Bank struct {
	Version   int            `yaml:"version"`
	Course    CourseSpec     `yaml:"course"`
	Questions []QuestionSpec `yaml:"questions"`
}

// CourseSpec identifies the course by its stable code.
type CourseSpec struct {
	Code  string `yaml:"code"`
	Title string `yaml:"title"`
}

// QuestionSpec is a multiple-choice question with its correct letter.
type QuestionSpec struct {
	Question string      `yaml:"question"`
	Options  OptionsSpec `yaml:"options"`
	Answer   string      `yaml:"answer"`
}

// OptionsSpec holds the four option texts.
type OptionsSpec struct {
	A string `yaml:"A"`
	B string `yaml:"B"`
	C string `yaml:"C"`
	D string `yaml:"D"`
}

// CourseModel converts the course header.
func (b Bank) CourseModel() model.Course {
	return model.Course{Code: b.Course.Code, Title: b.Course.Title}
}

// BankQuestions converts the questions for insertion under courseID.
func (b Bank) BankQuestions(courseID int) []model.BankQuestion {
	out := make([]model.BankQuestion, 0, len(b.Questions))
	for _, q := range b.Questions {
		out = append(out, model.BankQuestion{
			Question: model.Question{
				QuestionText: q.Question,
				OptionA:      q.Options.A,
				OptionB:      q.Options.B,
				OptionC:      q.Options.C,
				OptionD:      q.Options.D,
			},
			CourseID:      courseID,
			CorrectOption: q.Answer,
		})
	}
	return out
}
