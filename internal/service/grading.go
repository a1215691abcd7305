package service

import (
	"math"

	"github.com/stemsi/exstem-learn/internal/model"
)

// PickRandom draws n distinct questions uniformly from pool with a partial
// Fisher-Yates shuffle over a copy. n is capped at len(pool); n <= 0 means
// the whole pool. intn must return a value in [0, k).
func PickRandom(pool []model.Question, n int, intn func(k int) int) []model.Question {
	if n <= 0 || n > len(pool) {
		n = len(pool)
	}
	shuffled := make([]model.Question, len(pool))
	copy(shuffled, pool)
	for i := 0; i < n; i++ {
		j := i + intn(len(shuffled)-i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:n]
}

// Grade scores answers against the question set issued to the learner.
// Issued questions missing from answers count as unanswered, answers naming
// questions outside issued are rejected, and total is always len(issued).
// An issued id absent from key (bank reseeded since) is graded wrong.
func Grade(key map[int]string, issued []int, answers map[int]string) (correct, total int, err error) {
	inSet := make(map[int]bool, len(issued))
	for _, qid := range issued {
		inSet[qid] = true
	}
	for qid, letter := range answers {
		if !inSet[qid] {
			return 0, 0, ErrUnknownQuestion
		}
		if letter != model.OptionUnanswered && !model.IsOption(letter) {
			return 0, 0, ErrInvalidAnswer
		}
	}
	for _, qid := range issued {
		letter, ok := answers[qid]
		if !ok || letter == model.OptionUnanswered {
			continue
		}
		if want, ok := key[qid]; ok && letter == want {
			correct++
		}
	}
	return correct, len(issued), nil
}

// ScorePercent is correct/total as a percentage rounded to two decimals.
func ScorePercent(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*10000) / 100
}
