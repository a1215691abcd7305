package model

import (
	"time"

	"github.com/google/uuid"
)

// SubmitRequest is the body of POST /exam/submit. Answers maps a question id
// (JSON object keys are strings) to an option letter, with "E" for blanks.
type SubmitRequest struct {
	UserID   int            `json:"userId" binding:"required,min=1"`
	CourseID int            `json:"courseId" binding:"required,min=1"`
	Answers  map[int]string `json:"answers" binding:"required,min=1,dive,keys,min=1,endkeys,option_letter"`
}

// Attempt is a server-recorded exam submission.
type Attempt struct {
	ID             uuid.UUID      `json:"id"`
	UserID         int            `json:"userId"`
	CourseID       int            `json:"courseId"`
	Answers        map[int]string `json:"answers,omitempty"`
	Score          float64        `json:"score"`
	CorrectCount   int            `json:"correctCount"`
	TotalQuestions int            `json:"totalQuestions"`
	SubmittedAt    time.Time      `json:"submittedAt"`
}
