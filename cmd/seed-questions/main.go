package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/stemsi/exstem-learn/internal/config"
	"github.com/stemsi/exstem-learn/internal/database"
	"github.com/stemsi/exstem-learn/internal/logger"
	"github.com/stemsi/exstem-learn/internal/repository"
	"github.com/stemsi/exstem-learn/internal/seed"
	"github.com/stemsi/exstem-learn/internal/service"
)

func main() {
	var skipCache bool
	flag.BoolVar(&skipCache, "skip-cache", false, "Do not refresh the Redis question cache")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: seed-questions [flags] <bank.yaml>...")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Validate every file before touching the database.
	banks := make([]seed.Bank, 0, flag.NArg())
	for _, path := range flag.Args() {
		bank, err := seed.LoadBank(path)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("Invalid question bank")
		}
		banks = append(banks, bank)
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	courseRepo := repository.NewCourseRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	var exams *service.ExamService
	if !skipCache {
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		exams = service.NewExamService(courseRepo, questionRepo, repository.NewAttemptRepository(pool), rdb, cfg.ExamQuestionCount, log)
	}

	fmt.Printf("=== Seeding %d question bank(s) ===\n", len(banks))

	for _, bank := range banks {
		course := bank.CourseModel()
		if err := courseRepo.Upsert(ctx, &course); err != nil {
			log.Fatal().Err(err).Str("code", course.Code).Msg("Failed to upsert course")
		}

		n, err := questionRepo.ReplaceCourseBank(ctx, course.ID, bank.BankQuestions(course.ID))
		if err != nil {
			log.Fatal().Err(err).Int("course_id", course.ID).Msg("Failed to replace questions")
		}

		if exams != nil {
			if _, _, err := exams.WarmCourseCache(ctx, course.ID); err != nil {
				log.Warn().Err(err).Int("course_id", course.ID).Msg("Cache refresh failed; the server warms it on next start")
			}
		}

		fmt.Printf("Course %s (ID %d): %d questions\n", course.Code, course.ID, n)
	}

	fmt.Println("\nSeed completed!")
}
