package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/certquest/arena-backend/internal/config"
	"github.com/certquest/arena-backend/internal/database"
	"github.com/certquest/arena-backend/internal/importer"
	"github.com/certquest/arena-backend/internal/logger"
	"github.com/certquest/arena-backend/internal/repository"
	"github.com/certquest/arena-backend/internal/service"
	"github.com/certquest/arena-backend/internal/validator"
	"github.com/gin-gonic/gin/binding"
)

func main() {
	var (
		path   string
		dryRun bool
	)
	flag.StringVar(&path, "file", "exams.yaml", "Path to the YAML exam catalog")
	flag.BoolVar(&dryRun, "dry-run", false, "Validate the file without writing anything")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	// ─── Parse & Validate ──────────────────────────────────────────────
	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to open catalog")
	}
	doc, err := importer.Parse(f)
	f.Close()
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to parse catalog")
	}
	if err := doc.Check(); err != nil {
		log.Fatal().Err(err).Msg("Catalog is invalid")
	}
	for i := range doc.Exams {
		e := &doc.Exams[i]
		if err := binding.Validator.ValidateStruct(e.ExamRequest()); err != nil {
			log.Fatal().Interface("fields", validator.TranslateErrors(err)).Str("exam", e.Title).Msg("Invalid exam")
		}
		for j, q := range e.QuestionRequests() {
			if err := binding.Validator.ValidateStruct(q); err != nil {
				log.Fatal().Interface("fields", validator.TranslateErrors(err)).
					Str("exam", e.Title).Int("question", j+1).Msg("Invalid question")
			}
		}
	}

	if dryRun {
		fmt.Printf("%s: %d exam(s) valid\n", path, len(doc.Exams))
		return
	}

	// ─── Connect ───────────────────────────────────────────────────────
	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Redis is needed so imported questions invalidate stale cached sets.
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	examService := service.NewExamService(
		repository.NewExamRepository(pool),
		repository.NewQuestionRepository(pool),
		rdb, cfg.QuestionCacheTTL, log,
	)

	// ─── Import ────────────────────────────────────────────────────────
	for i := range doc.Exams {
		e := &doc.Exams[i]
		exam, err := examService.Create(ctx, e.ExamRequest())
		if err != nil {
			log.Fatal().Err(err).Str("exam", e.Title).Msg("Failed to create exam")
		}
		for j, q := range e.QuestionRequests() {
			if _, err := examService.AddQuestion(ctx, exam.ID, q); err != nil {
				log.Fatal().Err(err).Str("exam", e.Title).Int("question", j+1).Msg("Failed to add question")
			}
		}
		fmt.Printf("Imported %q (%s) with %d question(s)\n", exam.Title, exam.ID, len(e.Questions))
	}
}
