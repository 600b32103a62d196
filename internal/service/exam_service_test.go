package service

import (
	"errors"
	"testing"

	"github.com/certquest/arena-backend/internal/model"
	"github.com/certquest/arena-backend/internal/session"
	"github.com/google/uuid"
)

func TestValidateLanguage(t *testing.T) {
	for _, lang := range []string{"", "pt", "en", "es", "fr"} {
		if err := ValidateLanguage(lang); err != nil {
			t.Errorf("ValidateLanguage(%q) = %v", lang, err)
		}
	}
	for _, lang := range []string{"de", "PT", "pt-BR"} {
		if err := ValidateLanguage(lang); !errors.Is(err, ErrInvalidLanguage) {
			t.Errorf("ValidateLanguage(%q) = %v, want ErrInvalidLanguage", lang, err)
		}
	}
}

func TestNormalizePage(t *testing.T) {
	tests := []struct{ page, perPage, wantPage, wantPer int }{
		{0, 0, 1, 10},
		{3, 20, 3, 20},
		{-1, 500, 1, 100},
	}
	for _, tt := range tests {
		p, pp := normalizePage(tt.page, tt.perPage)
		if p != tt.wantPage || pp != tt.wantPer {
			t.Errorf("normalizePage(%d, %d) = %d, %d", tt.page, tt.perPage, p, pp)
		}
	}
}

func TestAttemptQuestions(t *testing.T) {
	pt1 := model.Question{ID: uuid.New(), Language: "pt"}
	pt2 := model.Question{ID: uuid.New(), Language: "pt"}
	en1 := model.Question{ID: uuid.New(), Language: "en"}
	all := []model.Question{pt1, en1, pt2}

	got := attemptQuestions(all, model.AnswerMap{en1.ID.String(): model.SingleAnswer("x")})
	if len(got) != 1 || got[0].ID != en1.ID {
		t.Errorf("en attempt = %v", got)
	}

	got = attemptQuestions(all, model.AnswerMap{})
	if len(got) != 3 {
		t.Errorf("unanswered attempt should keep all questions, got %d", len(got))
	}
}

func TestAttemptLanguage(t *testing.T) {
	exam := &model.Exam{Language: "pt"}
	if got := AttemptLanguage("", exam); got != "pt" {
		t.Errorf("AttemptLanguage(\"\") = %q, want pt", got)
	}
	if got := AttemptLanguage("en", exam); got != "en" {
		t.Errorf("AttemptLanguage(\"en\") = %q, want en", got)
	}
}

func singleChoice(language string) model.Question {
	q := model.Question{ID: uuid.New(), Type: model.QuestionTypeSingleChoice, Language: language}
	q.Options = []model.Option{
		{ID: uuid.New(), QuestionID: q.ID, IsCorrect: true},
		{ID: uuid.New(), QuestionID: q.ID},
	}
	return q
}

func TestGradeSubmissionWithoutLanguage(t *testing.T) {
	exam := &model.Exam{Language: "pt"}
	pt1, pt2 := singleChoice("pt"), singleChoice("pt")
	en1, en2 := singleChoice("en"), singleChoice("en")
	all := []model.Question{pt1, en1, pt2, en2}
	answers := model.AnswerMap{
		pt1.ID.String(): model.SingleAnswer(pt1.Options[0].ID.String()),
		pt2.ID.String(): model.SingleAnswer(pt2.Options[0].ID.String()),
	}

	out, err := gradeSubmission(exam, all, AttemptLanguage("", exam), answers)
	if err != nil {
		t.Fatal(err)
	}
	if out.Correct != 2 || out.Total != 2 || out.Score != 100 || !out.Passed {
		t.Errorf("outcome = %d/%d score %.1f passed %v, want 2/2 100 true",
			out.Correct, out.Total, out.Score, out.Passed)
	}

	review := attemptQuestions(all, answers)
	if len(review) != out.Total {
		t.Errorf("review covers %d questions, stored total is %d", len(review), out.Total)
	}
}

func TestGradeSubmissionUnknownLanguage(t *testing.T) {
	exam := &model.Exam{Language: "pt"}
	all := []model.Question{singleChoice("pt")}
	if _, err := gradeSubmission(exam, all, "fr", model.AnswerMap{}); !errors.Is(err, session.ErrNoQuestions) {
		t.Errorf("err = %v, want ErrNoQuestions", err)
	}
}

func TestBundleDescription(t *testing.T) {
	got := bundleDescription("AWS SAA", 4, 25)
	want := "Pacote completo AWS SAA com 4 simulados. Economize 25% comprando o pacote!"
	if got != want {
		t.Errorf("bundleDescription = %q, want %q", got, want)
	}
}
