package exam

import "github.com/stemsi/exstem-learn/internal/model"

// BuildSubmission produces a payload with exactly one entry per question.
// Questions without a recorded answer are filled with the unanswered letter.
func BuildSubmission(userID, courseID int, questions []model.Question, answers map[int]string) model.SubmitRequest {
	filled := make(map[int]string, len(questions))
	for _, q := range questions {
		if letter, ok := answers[q.ID]; ok && model.IsOption(letter) {
			filled[q.ID] = letter
			continue
		}
		filled[q.ID] = model.OptionUnanswered
	}
	return model.SubmitRequest{
		UserID:   userID,
		CourseID: courseID,
		Answers:  filled,
	}
}
