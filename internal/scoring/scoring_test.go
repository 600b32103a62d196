package scoring

import (
	"testing"

	"github.com/certquest/arena-backend/internal/model"
	"github.com/google/uuid"
)

var (
	optA = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	optB = uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	optC = uuid.MustParse("00000000-0000-0000-0000-00000000000c")
	optD = uuid.MustParse("00000000-0000-0000-0000-00000000000d")
)

func question(typ model.QuestionType, correct ...uuid.UUID) model.Question {
	q := model.Question{ID: uuid.New(), Type: typ, Text: "q", Explanation: "because"}
	for _, id := range []uuid.UUID{optA, optB, optC, optD} {
		isCorrect := false
		for _, c := range correct {
			if c == id {
				isCorrect = true
			}
		}
		q.Options = append(q.Options, model.Option{ID: id, IsCorrect: isCorrect})
	}
	return q
}

func TestIsCorrectSingleChoice(t *testing.T) {
	q := question(model.QuestionTypeSingleChoice, optB)
	tests := []struct {
		name     string
		answer   model.Answer
		answered bool
		want     bool
	}{
		{"correct option", model.SingleAnswer(optB.String()), true, true},
		{"wrong option", model.SingleAnswer(optA.String()), true, false},
		{"unanswered", model.Answer{}, false, false},
		{"empty string", model.SingleAnswer(""), true, false},
		{"two options sent", model.MultiAnswer(optB.String(), optA.String()), true, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCorrect(&q, tc.answer, tc.answered); got != tc.want {
				t.Errorf("IsCorrect = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsCorrectMultipleChoiceAllOrNothing(t *testing.T) {
	q := question(model.QuestionTypeMultipleChoice, optA, optC)
	tests := []struct {
		name   string
		answer model.Answer
		want   bool
	}{
		{"subset {A}", model.MultiAnswer(optA.String()), false},
		{"exact {A,C}", model.MultiAnswer(optA.String(), optC.String()), true},
		{"exact reordered {C,A}", model.MultiAnswer(optC.String(), optA.String()), true},
		{"superset {A,B,C}", model.MultiAnswer(optA.String(), optB.String(), optC.String()), false},
		{"disjoint {B,D}", model.MultiAnswer(optB.String(), optD.String()), false},
		{"empty set", model.MultiAnswer(), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCorrect(&q, tc.answer, true); got != tc.want {
				t.Errorf("IsCorrect = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGradeUnansweredCountsAsWrong(t *testing.T) {
	qs := []model.Question{
		question(model.QuestionTypeSingleChoice, optA),
		question(model.QuestionTypeSingleChoice, optB),
		question(model.QuestionTypeMultipleChoice, optA, optD),
		question(model.QuestionTypeSingleChoice, optC),
	}
	answers := model.AnswerMap{
		qs[0].ID.String(): model.SingleAnswer(optA.String()),
		qs[2].ID.String(): model.MultiAnswer(optA.String(), optD.String()),
	}

	out := Grade(qs, answers, 70)
	if out.Correct != 2 || out.Total != 4 {
		t.Fatalf("correct/total = %d/%d, want 2/4", out.Correct, out.Total)
	}
	if out.Score != 50 {
		t.Errorf("score = %v, want 50", out.Score)
	}
	if out.Passed {
		t.Error("50% should not pass a 70% threshold")
	}
	if len(out.Review) != 4 || out.Review[1].Correct || !out.Review[1].Selected.Empty() {
		t.Errorf("review of unanswered question is wrong: %+v", out.Review[1])
	}
	if out.Review[0].Explanation != "because" {
		t.Errorf("review should carry the explanation")
	}
}

func TestGradeIsDeterministic(t *testing.T) {
	qs := []model.Question{
		question(model.QuestionTypeSingleChoice, optA),
		question(model.QuestionTypeMultipleChoice, optB, optC),
		question(model.QuestionTypeSingleChoice, optD),
	}
	answers := model.AnswerMap{
		qs[0].ID.String(): model.SingleAnswer(optA.String()),
		qs[1].ID.String(): model.MultiAnswer(optC.String(), optB.String()),
		qs[2].ID.String(): model.SingleAnswer(optA.String()),
	}

	first := Grade(qs, answers, 60)
	for i := 0; i < 50; i++ {
		got := Grade(qs, answers, 60)
		if got.Correct != first.Correct || got.Score != first.Score || got.Passed != first.Passed {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestPassedBoundary(t *testing.T) {
	tests := []struct {
		score, threshold float64
		want             bool
	}{
		{70.0, 70, true},
		{69.99, 70, false},
		{100, 70, true},
		{0, 0, true},
		{Percentage(7, 10), 70, true},
	}
	for _, tc := range tests {
		if got := Passed(tc.score, tc.threshold); got != tc.want {
			t.Errorf("Passed(%v, %v) = %v, want %v", tc.score, tc.threshold, got, tc.want)
		}
	}
}

func TestPassingScoreOrDefault(t *testing.T) {
	if got := PassingScoreOrDefault(nil); got != 70 {
		t.Errorf("default = %v, want 70", got)
	}
	v := 85.0
	if got := PassingScoreOrDefault(&v); got != 85 {
		t.Errorf("configured = %v, want 85", got)
	}
}

func TestPercentageEmptyExam(t *testing.T) {
	if got := Percentage(0, 0); got != 0 {
		t.Errorf("Percentage(0,0) = %v", got)
	}
}

func TestTimeSpent(t *testing.T) {
	tests := []struct {
		name      string
		duration  int
		remaining int
		timedOut  bool
		want      int
	}{
		{"manual finish", 30, 600, false, 1200},
		{"timeout uses full duration", 30, 0, true, 1800},
		{"timeout ignores remaining", 30, 12, true, 1800},
		{"finish at once", 10, 600, false, 0},
		{"negative remaining clamps", 10, -5, false, 600},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TimeSpent(tc.duration, tc.remaining, tc.timedOut); got != tc.want {
				t.Errorf("TimeSpent = %d, want %d", got, tc.want)
			}
		})
	}
}
