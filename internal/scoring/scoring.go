// Package scoring grades exam attempts. Every function is pure: the same
// question set and answer map always yield the same outcome.
package scoring

import (
	"math"

	"github.com/certquest/arena-backend/internal/model"
)

// Outcome is the graded result of one attempt.
type Outcome struct {
	Correct int
	Total   int
	Score   float64
	Passed  bool
	Review  []model.QuestionReview
}

// IsCorrect grades one question. A missing answer is always wrong.
//
// Single-choice: the one selected option must equal the correct option.
// Multiple-choice: the selected set must equal the correct set exactly;
// there is no partial credit.
func IsCorrect(q *model.Question, answer model.Answer, answered bool) bool {
	if !answered || answer.Empty() {
		return false
	}
	correct := q.CorrectOptionIDs()
	if len(correct) == 0 {
		return false
	}

	switch q.Type {
	case model.QuestionTypeMultipleChoice:
		return sameSet(answer.Selected, correct)
	default:
		return len(answer.Selected) == 1 && answer.Selected[0] == correct[0]
	}
}

func sameSet(a, b []string) bool {
	as := toSet(a)
	bs := toSet(b)
	if len(as) != len(bs) {
		return false
	}
	for k := range as {
		if _, ok := bs[k]; !ok {
			return false
		}
	}
	return true
}

func toSet(ids []string) map[string]struct{} {
	s := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Grade scores answers against the full question set. The total is the number
// of questions given, so unanswered questions count as wrong.
func Grade(questions []model.Question, answers model.AnswerMap, passingScore float64) Outcome {
	out := Outcome{
		Total:  len(questions),
		Review: make([]model.QuestionReview, 0, len(questions)),
	}

	for i := range questions {
		q := &questions[i]
		ans, answered := answers[q.ID.String()]
		ok := IsCorrect(q, ans, answered)
		if ok {
			out.Correct++
		}
		out.Review = append(out.Review, model.QuestionReview{
			QuestionID:       q.ID,
			Text:             q.Text,
			Type:             q.Type,
			Selected:         ans,
			CorrectOptionIDs: q.CorrectOptionIDs(),
			Correct:          ok,
			Explanation:      q.Explanation,
		})
	}

	out.Score = Percentage(out.Correct, out.Total)
	out.Passed = Passed(out.Score, passingScore)
	return out
}

// Percentage returns correct/total*100, or 0 for an empty exam.
func Percentage(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// Passed reports whether score reaches the threshold. The comparison is
// inclusive and tolerates float noise from the percentage division.
func Passed(score, threshold float64) bool {
	return score >= threshold || math.Abs(score-threshold) < 1e-9
}

// PassingScoreOrDefault returns the configured threshold or 70.
func PassingScoreOrDefault(threshold *float64) float64 {
	if threshold == nil {
		return model.DefaultPassingScore
	}
	return *threshold
}

// TimeSpent returns the seconds used by an attempt. A timed-out attempt used
// the whole duration.
func TimeSpent(durationMinutes, remainingSeconds int, timedOut bool) int {
	total := durationMinutes * 60
	if timedOut {
		return total
	}
	spent := total - remainingSeconds
	if spent < 0 {
		return 0
	}
	if spent > total {
		return total
	}
	return spent
}
