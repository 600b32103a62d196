package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/certquest/arena-backend/internal/model"
	"github.com/certquest/arena-backend/internal/repository"
	"github.com/certquest/arena-backend/internal/response"
	"github.com/certquest/arena-backend/internal/scoring"
	"github.com/certquest/arena-backend/internal/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrResultForbidden = errors.New("result belongs to another user")

var nowFunc = time.Now

// ResultService grades and stores submitted attempts.
type ResultService struct {
	resultRepo *repository.ResultRepository
	exams      *ExamService
	log        zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(resultRepo *repository.ResultRepository, exams *ExamService, log zerolog.Logger) *ResultService {
	return &ResultService{
		resultRepo: resultRepo,
		exams:      exams,
		log:        log.With().Str("component", "result_service").Logger(),
	}
}

// Submit grades the answers against the stored answer key and inserts the
// result. Score fields sent by the client are only compared, never trusted.
func (s *ResultService) Submit(ctx context.Context, userID *uuid.UUID, req *model.SubmitResultRequest) (*model.ResultDetail, error) {
	exam, err := s.exams.GetByID(ctx, req.ExamID)
	if err != nil {
		return nil, err
	}
	language := AttemptLanguage(req.Language, exam)
	questions, err := s.exams.Questions(ctx, req.ExamID, language)
	if err != nil {
		return nil, err
	}

	answers := req.Answers
	if answers == nil {
		answers = model.AnswerMap{}
	}
	out, err := gradeSubmission(exam, questions, language, answers)
	if err != nil {
		return nil, err
	}
	s.compareClientScore(req, out)

	spent := req.TimeSpentSeconds
	if limit := exam.DurationMinutes * 60; spent > limit {
		spent = limit
	}

	res := model.Result{
		ID:               uuid.New(),
		ExamID:           exam.ID,
		UserID:           userID,
		Answers:          answers,
		CorrectAnswers:   out.Correct,
		TotalQuestions:   out.Total,
		Score:            out.Score,
		TimeSpentSeconds: spent,
		Passed:           out.Passed,
		CompletedAt:      nowFunc().UTC(),
	}
	if _, err := s.resultRepo.Create(ctx, &res); err != nil {
		return nil, fmt.Errorf("insert result: %w", err)
	}

	s.log.Info().
		Str("result_id", res.ID.String()).
		Str("exam_id", exam.ID.String()).
		Int("correct", res.CorrectAnswers).
		Int("total", res.TotalQuestions).
		Bool("passed", res.Passed).
		Msg("Result stored")
	return &model.ResultDetail{Result: res, Review: out.Review}, nil
}

func (s *ResultService) compareClientScore(req *model.SubmitResultRequest, out scoring.Outcome) {
	mismatch := (req.CorrectAnswers != nil && *req.CorrectAnswers != out.Correct) ||
		(req.Score != nil && math.Abs(*req.Score-out.Score) > 0.01) ||
		(req.Passed != nil && *req.Passed != out.Passed)
	if !mismatch {
		return
	}
	ev := s.log.Warn().
		Str("exam_id", req.ExamID.String()).
		Int("server_correct", out.Correct).
		Float64("server_score", out.Score).
		Bool("server_passed", out.Passed)
	if req.CorrectAnswers != nil {
		ev = ev.Int("client_correct", *req.CorrectAnswers)
	}
	if req.Score != nil {
		ev = ev.Float64("client_score", *req.Score)
	}
	ev.Msg("Client score differs from server grading, keeping server score")
}

// Get returns a result with its per-question review. Results owned by a user
// are visible to that user and to admins.
func (s *ResultService) Get(ctx context.Context, id uuid.UUID, caller *uuid.UUID, isAdmin bool) (*model.ResultDetail, error) {
	res, err := s.resultRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.UserID != nil && !isAdmin && (caller == nil || *caller != *res.UserID) {
		return nil, ErrResultForbidden
	}

	exam, err := s.exams.GetByID(ctx, res.ExamID)
	if err != nil {
		return nil, err
	}
	questions, err := s.exams.Questions(ctx, res.ExamID, "")
	if err != nil {
		return nil, err
	}
	questions = attemptQuestions(questions, res.Answers)

	review := scoring.Grade(questions, res.Answers, exam.PassingThreshold()).Review
	return &model.ResultDetail{Result: *res, Review: review}, nil
}

// ListMine returns a page of the caller's results.
func (s *ResultService) ListMine(ctx context.Context, userID uuid.UUID, page, perPage int) ([]model.Result, *response.Pagination, error) {
	page, perPage = normalizePage(page, perPage)
	results, total, err := s.resultRepo.ListByUser(ctx, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	return results, response.NewPagination(page, perPage, total), nil
}

// gradeSubmission grades answers over the questions of one language only, so
// translations the taker never saw do not count against them.
func gradeSubmission(exam *model.Exam, questions []model.Question, language string, answers model.AnswerMap) (scoring.Outcome, error) {
	questions = inLanguage(questions, language)
	if len(questions) == 0 {
		return scoring.Outcome{}, session.ErrNoQuestions
	}
	return scoring.Grade(questions, answers, exam.PassingThreshold()), nil
}

// attemptQuestions narrows a multi-language question set to the language the
// attempt was taken in, judged by the first answered question.
func attemptQuestions(questions []model.Question, answers model.AnswerMap) []model.Question {
	language := ""
	for _, q := range questions {
		if _, ok := answers[q.ID.String()]; ok {
			language = q.Language
			break
		}
	}
	return inLanguage(questions, language)
}
