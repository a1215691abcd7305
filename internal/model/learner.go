package model

import "time"

// Learner is an account that can take course exams.
type Learner struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginRequest is the payload for learner authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// LoginResponse carries the issued token and the learner profile.
type LoginResponse struct {
	Token   string   `json:"token"`
	Learner *Learner `json:"learner"`
}

// Course groups a question bank.
type Course struct {
	ID    int    `json:"id"`
	Code  string `json:"code"`
	Title string `json:"title"`
}
