package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-learn/internal/config"
	"github.com/stemsi/exstem-learn/internal/model"
	"github.com/stemsi/exstem-learn/internal/repository"
)

// Domain Errors
var (
	ErrCourseNotFound   = errors.New("course not found")
	ErrUnknownQuestion  = errors.New("answer names a question outside the issued set")
	ErrNoIssuedSet      = errors.New("no question set was issued for this course")
	ErrInvalidAnswer    = errors.New("answer letter must be A-E")
	ErrLearnerMismatch  = errors.New("submission user does not match the token")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrSubmitInProgress = errors.New("submission with this idempotency key is in progress")
)

const (
	submissionPending = "pending"
	submissionTTL     = 24 * time.Hour
	issuedSetTTL      = 24 * time.Hour
)

// ExamService serves random question sets from a Redis cached bank and
// grades submissions against the cached answer key.
type ExamService struct {
	courseRepo   *repository.CourseRepository
	questionRepo *repository.QuestionRepository
	attemptRepo  *repository.AttemptRepository
	rdb          *redis.Client
	defaultCount int
	intn         func(int) int
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	courseRepo *repository.CourseRepository,
	questionRepo *repository.QuestionRepository,
	attemptRepo *repository.AttemptRepository,
	rdb *redis.Client,
	defaultCount int,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		courseRepo:   courseRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		rdb:          rdb,
		defaultCount: defaultCount,
		intn:         rand.IntN,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// WarmCourseCache loads a course bank from PostgreSQL into Redis: the
// learner-facing questions as JSON and the answer key as a hash.
func (s *ExamService) WarmCourseCache(ctx context.Context, courseID int) ([]model.Question, map[int]string, error) {
	bank, err := s.questionRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, nil, fmt.Errorf("list questions: %w", err)
	}

	questions := make([]model.Question, len(bank))
	answerKey := make(map[int]string, len(bank))
	hash := make(map[string]any, len(bank))
	for i, q := range bank {
		questions[i] = q.Question
		answerKey[q.ID] = q.CorrectOption
		hash[strconv.Itoa(q.ID)] = q.CorrectOption
	}

	payload, err := json.Marshal(questions)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal questions: %w", err)
	}

	keyKey := config.CacheKey.CourseAnswerKey(courseID)
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.CourseQuestionPoolKey(courseID), payload, 0)
	pipe.Del(ctx, keyKey)
	if len(hash) > 0 {
		pipe.HSet(ctx, keyKey, hash)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, nil, fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Int("course_id", courseID).
		Int("questions", len(questions)).
		Msg("Cache warmed")
	return questions, answerKey, nil
}

// PrewarmAllCaches loads every course bank into Redis on startup.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	courses, err := s.courseRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list courses: %w", err)
	}
	if len(courses) == 0 {
		s.log.Info().Msg("No courses to prewarm")
		return nil
	}

	warmed := 0
	for _, c := range courses {
		if _, _, err := s.WarmCourseCache(ctx, c.ID); err != nil {
			s.log.Warn().Err(err).Int("course_id", c.ID).Msg("Failed to warm course, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(courses)).
		Msg("Prewarming complete")
	return nil
}

// RandomQuestions returns count distinct questions drawn from the course
// bank and records their ids as the learner's issued set for grading.
// count <= 0 uses the configured default. A new draw replaces the
// previous set.
func (s *ExamService) RandomQuestions(ctx context.Context, learnerID, courseID, count int) ([]model.Question, error) {
	pool, err := s.questionPool(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		count = s.defaultCount
	}
	picked := PickRandom(pool, count, s.intn)

	ids := make([]any, len(picked))
	for i, q := range picked {
		ids[i] = q.ID
	}
	setKey := config.CacheKey.IssuedSetKey(learnerID, courseID)
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, setKey)
	if len(ids) > 0 {
		pipe.RPush(ctx, setKey, ids...)
		pipe.Expire(ctx, setKey, issuedSetTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("store issued set: %w", err)
	}
	return picked, nil
}

// Submit grades and stores an attempt. With a non-empty idempotencyKey a
// repeat within 24h returns the first attempt and replayed=true.
func (s *ExamService) Submit(ctx context.Context, learnerID int, req model.SubmitRequest, idempotencyKey string) (attempt *model.Attempt, replayed bool, err error) {
	if req.UserID != learnerID {
		return nil, false, ErrLearnerMismatch
	}
	if idempotencyKey == "" {
		attempt, err = s.gradeAndStore(ctx, req)
		return attempt, false, err
	}

	redisKey := config.CacheKey.SubmissionKey(learnerID, idempotencyKey)
	claimed, err := s.rdb.SetNX(ctx, redisKey, submissionPending, submissionTTL).Result()
	if err != nil {
		return nil, false, fmt.Errorf("claim idempotency key: %w", err)
	}
	if !claimed {
		attempt, err = s.replay(ctx, learnerID, redisKey)
		return attempt, err == nil, err
	}

	attempt, err = s.gradeAndStore(ctx, req)
	if err != nil {
		if delErr := s.rdb.Del(ctx, redisKey).Err(); delErr != nil {
			s.log.Warn().Err(delErr).Str("key", redisKey).Msg("Failed to release idempotency key")
		}
		return nil, false, err
	}
	if err := s.rdb.Set(ctx, redisKey, attempt.ID.String(), submissionTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", redisKey).Msg("Failed to record idempotency pointer")
	}
	return attempt, false, nil
}

// GetAttempt returns an attempt owned by learnerID. Attempts of other
// learners are reported as not found.
func (s *ExamService) GetAttempt(ctx context.Context, learnerID int, id uuid.UUID) (*model.Attempt, error) {
	a, err := s.attemptRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if a.UserID != learnerID {
		return nil, ErrAttemptNotFound
	}
	return a, nil
}

func (s *ExamService) gradeAndStore(ctx context.Context, req model.SubmitRequest) (*model.Attempt, error) {
	setKey := config.CacheKey.IssuedSetKey(req.UserID, req.CourseID)
	issued, err := s.issuedSet(ctx, setKey)
	if err != nil {
		return nil, err
	}
	key, err := s.answerKey(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	correct, total, err := Grade(key, issued, req.Answers)
	if err != nil {
		return nil, err
	}

	attempt := &model.Attempt{
		ID:             uuid.New(),
		UserID:         req.UserID,
		CourseID:       req.CourseID,
		Answers:        req.Answers,
		Score:          ScorePercent(correct, total),
		CorrectCount:   correct,
		TotalQuestions: total,
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("store attempt: %w", err)
	}
	if err := s.rdb.Del(ctx, setKey).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", setKey).Msg("Failed to clear issued set")
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Int("learner_id", attempt.UserID).
		Int("course_id", attempt.CourseID).
		Float64("score", attempt.Score).
		Int("correct", correct).
		Int("total", total).
		Msg("Exam submitted and graded")
	return attempt, nil
}

func (s *ExamService) replay(ctx context.Context, learnerID int, redisKey string) (*model.Attempt, error) {
	val, err := s.rdb.Get(ctx, redisKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Released by a failed first attempt between SETNX and GET.
			return nil, ErrSubmitInProgress
		}
		return nil, fmt.Errorf("read idempotency key: %w", err)
	}
	if val == submissionPending {
		return nil, ErrSubmitInProgress
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return nil, fmt.Errorf("parse stored attempt id: %w", err)
	}
	return s.GetAttempt(ctx, learnerID, id)
}

// issuedSet reads the question ids last handed out by RandomQuestions.
func (s *ExamService) issuedSet(ctx context.Context, setKey string) ([]int, error) {
	raw, err := s.rdb.LRange(ctx, setKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("get issued set: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrNoIssuedSet
	}
	ids := make([]int, len(raw))
	for i, v := range raw {
		id, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("issued set entry %q: %w", v, err)
		}
		ids[i] = id
	}
	return ids, nil
}

// questionPool reads the cached bank, warming it on a miss.
func (s *ExamService) questionPool(ctx context.Context, courseID int) ([]model.Question, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.CourseQuestionPoolKey(courseID)).Bytes()
	if err == nil {
		var pool []model.Question
		if err := json.Unmarshal(data, &pool); err != nil {
			return nil, fmt.Errorf("unmarshal questions: %w", err)
		}
		return pool, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get questions: %w", err)
	}

	if err := s.ensureCourse(ctx, courseID); err != nil {
		return nil, err
	}
	pool, _, err := s.WarmCourseCache(ctx, courseID)
	return pool, err
}

// answerKey reads the cached answer key, warming it on a miss.
func (s *ExamService) answerKey(ctx context.Context, courseID int) (map[int]string, error) {
	raw, err := s.rdb.HGetAll(ctx, config.CacheKey.CourseAnswerKey(courseID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get answer key: %w", err)
	}
	if len(raw) > 0 {
		key := make(map[int]string, len(raw))
		for k, v := range raw {
			id, err := strconv.Atoi(k)
			if err != nil {
				return nil, fmt.Errorf("answer key field %q: %w", k, err)
			}
			key[id] = v
		}
		return key, nil
	}

	if err := s.ensureCourse(ctx, courseID); err != nil {
		return nil, err
	}
	_, key, err := s.WarmCourseCache(ctx, courseID)
	return key, err
}

func (s *ExamService) ensureCourse(ctx context.Context, courseID int) error {
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("get course: %w", err)
	}
	return nil
}
