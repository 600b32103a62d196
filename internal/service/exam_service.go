package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/certquest/arena-backend/internal/category"
	"github.com/certquest/arena-backend/internal/config"
	"github.com/certquest/arena-backend/internal/model"
	"github.com/certquest/arena-backend/internal/pricing"
	"github.com/certquest/arena-backend/internal/repository"
	"github.com/certquest/arena-backend/internal/response"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain Errors
var (
	ErrInvalidLanguage  = errors.New("unsupported language")
	ErrInvalidQuestion  = errors.New("question has an invalid set of correct options")
	ErrExamNotAvailable = errors.New("exam is not active")
)

// DefaultLanguage is used when an exam or question is created without one.
const DefaultLanguage = "pt"

var supportedLanguages = map[string]bool{"pt": true, "en": true, "es": true, "fr": true}

// ValidateLanguage accepts an empty language (no filter) or a supported code.
func ValidateLanguage(language string) error {
	if language == "" || supportedLanguages[language] {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidLanguage, language)
}

// ExamListParams selects a page of the catalog.
type ExamListParams struct {
	Page       int
	PerPage    int
	ActiveOnly bool
	Category   string
	Language   string
}

// ExamService handles exam business logic and the Redis question cache.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	cacheTTL     time.Duration
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		cacheTTL:     cacheTTL,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// GetByID retrieves an exam by its UUID.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// List retrieves a page of the catalog with the current price of each exam.
func (s *ExamService) List(ctx context.Context, p ExamListParams) ([]model.ExamListItem, *response.Pagination, error) {
	if err := ValidateLanguage(p.Language); err != nil {
		return nil, nil, err
	}
	page, perPage := normalizePage(p.Page, p.PerPage)

	exams, total, err := s.examRepo.List(ctx, repository.ExamFilter{
		ActiveOnly: p.ActiveOnly,
		Category:   p.Category,
		Language:   p.Language,
		Limit:      perPage,
		Offset:     (page - 1) * perPage,
	})
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	items := make([]model.ExamListItem, len(exams))
	for i := range exams {
		items[i] = model.ExamListItem{
			Exam:           exams[i],
			EffectivePrice: pricing.EffectiveExamPrice(&exams[i], now),
		}
	}
	return items, response.NewPagination(page, perPage, total), nil
}

// Create inserts a new exam. A missing category is derived from the title.
func (s *ExamService) Create(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error) {
	exam := &model.Exam{
		Title:              req.Title,
		Description:        req.Description,
		DurationMinutes:    req.DurationMinutes,
		Difficulty:         req.Difficulty,
		Active:             true,
		Price:              req.Price,
		DiscountedPrice:    req.DiscountedPrice,
		DiscountPercentage: req.DiscountPercentage,
		DiscountExpiresAt:  req.DiscountExpiresAt,
		PassingScore:       req.PassingScore,
		Category:           category.OrDetect(req.Category, req.Title),
		IsFree:             req.IsFree,
		Language:           req.Language,
	}
	if req.Active != nil {
		exam.Active = *req.Active
	}
	if exam.Difficulty == "" {
		exam.Difficulty = "intermediario"
	}
	if exam.Language == "" {
		exam.Language = DefaultLanguage
	}

	if err := s.examRepo.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	s.log.Info().Str("exam_id", exam.ID.String()).Str("category", exam.Category).Msg("Exam created")
	return exam, nil
}

// Update applies the set fields of req to the stored exam.
func (s *ExamService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(exam)
	if exam.Category == "" {
		exam.Category = category.Detect(exam.Title)
	}

	if err := s.examRepo.Update(ctx, exam); err != nil {
		return nil, fmt.Errorf("update exam: %w", err)
	}
	s.InvalidateQuestions(ctx, id)
	return exam, nil
}

// Delete removes an exam and everything that references it.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.examRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.InvalidateQuestions(ctx, id)
	s.log.Info().Str("exam_id", id.String()).Msg("Exam deleted")
	return nil
}

// AttemptLanguage is the language an attempt runs in: the requested one, or
// the exam's own language when none was given.
func AttemptLanguage(requested string, exam *model.Exam) string {
	if requested != "" {
		return requested
	}
	return exam.Language
}

// inLanguage keeps the questions written in language. An empty language
// keeps everything.
func inLanguage(questions []model.Question, language string) []model.Question {
	if language == "" {
		return questions
	}
	filtered := make([]model.Question, 0, len(questions))
	for _, q := range questions {
		if q.Language == language {
			filtered = append(filtered, q)
		}
	}
	return filtered
}

// Questions returns the exam's question set, answer key included, filtered by
// language when one is given. Sets are cached in Redis; a Redis failure falls
// back to PostgreSQL.
func (s *ExamService) Questions(ctx context.Context, examID uuid.UUID, language string) ([]model.Question, error) {
	if err := ValidateLanguage(language); err != nil {
		return nil, err
	}

	key := config.CacheKey.ExamQuestionsKey(examID.String(), language)
	data, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []model.Question
		if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
			return cached, nil
		}
		s.log.Warn().Str("key", key).Msg("Corrupt question cache entry, reloading")
	case !errors.Is(err, redis.Nil):
		s.log.Warn().Err(err).Str("key", key).Msg("Question cache read failed")
	}

	questions, err := s.questionRepo.ListByExam(ctx, examID, language)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	if raw, err := json.Marshal(questions); err == nil {
		if err := s.rdb.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Question cache write failed")
		}
	}
	return questions, nil
}

// AddQuestion validates and stores a question with its options.
func (s *ExamService) AddQuestion(ctx context.Context, examID uuid.UUID, req *model.AddQuestionRequest) (*model.Question, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}

	q := &model.Question{
		ExamID:       examID,
		Text:         req.Text,
		Type:         model.QuestionType(req.Type),
		Explanation:  req.Explanation,
		Category:     req.Category,
		Difficulty:   req.Difficulty,
		Points:       req.Points,
		Tags:         req.Tags,
		ReferenceURL: req.ReferenceURL,
		Language:     req.Language,
		OrderNum:     req.OrderNum,
	}
	if q.Points == 0 {
		q.Points = 1
	}
	if q.Language == "" {
		q.Language = exam.Language
	}

	correct := 0
	for i, o := range req.Options {
		if o.IsCorrect {
			correct++
		}
		q.Options = append(q.Options, model.Option{Text: o.Text, IsCorrect: o.IsCorrect, OrderNum: i + 1})
	}
	if correct == 0 || (q.Type == model.QuestionTypeSingleChoice && correct != 1) {
		return nil, ErrInvalidQuestion
	}

	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	s.InvalidateQuestions(ctx, examID)
	return q, nil
}

// DeleteQuestion removes one question of an exam.
func (s *ExamService) DeleteQuestion(ctx context.Context, examID, questionID uuid.UUID) error {
	if err := s.questionRepo.Delete(ctx, examID, questionID); err != nil {
		return err
	}
	s.InvalidateQuestions(ctx, examID)
	return nil
}

// InvalidateQuestions drops every cached question set of an exam.
func (s *ExamService) InvalidateQuestions(ctx context.Context, examID uuid.UUID) {
	pattern := config.CacheKey.ExamQuestionsPattern(examID.String())
	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()

	pipe := s.rdb.Pipeline()
	n := 0
	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
		n++
	}
	if err := iter.Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Question cache scan failed")
		return
	}
	if n == 0 {
		return
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Question cache invalidation failed")
		return
	}
	s.log.Debug().Str("exam_id", examID.String()).Int("keys", n).Msg("Question cache invalidated")
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}
