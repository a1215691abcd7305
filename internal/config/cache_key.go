package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// LearnerSessionKey returns the cache key holding a learner's active token id
func (r *CacheKeyStruct) LearnerSessionKey(learnerID int) string {
	return fmt.Sprintf("learner:%d:session", learnerID)
}

// CourseQuestionPoolKey returns the cache key for a course's student-facing question bank
func (r *CacheKeyStruct) CourseQuestionPoolKey(courseID int) string {
	return fmt.Sprintf("course:%d:questions", courseID)
}

// CourseAnswerKey returns the cache key for a course's answer key hash
func (r *CacheKeyStruct) CourseAnswerKey(courseID int) string {
	return fmt.Sprintf("course:%d:key", courseID)
}

// IssuedSetKey returns the cache key listing the question ids last issued to a learner for a course
func (r *CacheKeyStruct) IssuedSetKey(learnerID, courseID int) string {
	return fmt.Sprintf("learner:%d:course:%d:issued", learnerID, courseID)
}

// SubmissionKey returns the idempotency key guarding a single exam submission
func (r *CacheKeyStruct) SubmissionKey(learnerID int, idempotencyKey string) string {
	return fmt.Sprintf("learner:%d:submission:%s", learnerID, idempotencyKey)
}

var CacheKey = NewCacheKeyStruct()
