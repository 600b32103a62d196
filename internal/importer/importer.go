// Package importer reads exam catalogs from YAML so banks can be kept in
// version control and loaded with cmd/import-exams.
//
//	exams:
//	  - title: AWS Certified Cloud Practitioner
//	    duration_minutes: 90
//	    questions:
//	      - text: Which service stores objects?
//	        type: single_choice
//	        options:
//	          - {text: Amazon S3, correct: true}
//	          - {text: Amazon EC2}
package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/certquest/arena-backend/internal/model"
	"gopkg.in/yaml.v3"
)

// File is the root of an import document.
type File struct {
	Exams []Exam `yaml:"exams"`
}

type Exam struct {
	Title           string     `yaml:"title"`
	Description     string     `yaml:"description"`
	DurationMinutes int        `yaml:"duration_minutes"`
	Difficulty      string     `yaml:"difficulty"`
	Category        string     `yaml:"category"`
	Language        string     `yaml:"language"`
	Price           *float64   `yaml:"price"`
	PassingScore    *float64   `yaml:"passing_score"`
	Free            bool       `yaml:"is_gratis"`
	Inactive        bool       `yaml:"inactive"`
	Questions       []Question `yaml:"questions"`
}

type Question struct {
	Text        string   `yaml:"text"`
	Type        string   `yaml:"type"`
	Explanation string   `yaml:"explanation"`
	Category    string   `yaml:"category"`
	Difficulty  string   `yaml:"difficulty"`
	Points      int      `yaml:"points"`
	Tags        []string `yaml:"tags"`
	Reference   *string  `yaml:"reference_url"`
	Language    string   `yaml:"language"`
	Options     []Option `yaml:"options"`
}

type Option struct {
	Text    string `yaml:"text"`
	Correct bool   `yaml:"correct"`
}

// Parse decodes an import document. Unknown keys are rejected so typos do
// not silently drop data.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty import document")
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(f.Exams) == 0 {
		return nil, errors.New("import document has no exams")
	}
	return &f, nil
}

// Check reports structural problems the request validators cannot see:
// answer keys that do not fit the question type and empty exams.
func (f *File) Check() error {
	var problems []string
	for i, e := range f.Exams {
		if len(e.Questions) == 0 {
			problems = append(problems, fmt.Sprintf("exams[%d] %q: no questions", i, e.Title))
		}
		for j, q := range e.Questions {
			correct := 0
			for _, o := range q.Options {
				if o.Correct {
					correct++
				}
			}
			qType := q.QuestionType()
			switch {
			case correct == 0:
				problems = append(problems, fmt.Sprintf("exams[%d].questions[%d]: no correct option", i, j))
			case qType == model.QuestionTypeSingleChoice && correct > 1:
				problems = append(problems, fmt.Sprintf("exams[%d].questions[%d]: single_choice with %d correct options", i, j, correct))
			}
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// QuestionType defaults to single choice, or multiple choice when more than
// one option is marked correct.
func (q *Question) QuestionType() model.QuestionType {
	if q.Type != "" {
		return model.QuestionType(q.Type)
	}
	correct := 0
	for _, o := range q.Options {
		if o.Correct {
			correct++
		}
	}
	if correct > 1 {
		return model.QuestionTypeMultipleChoice
	}
	return model.QuestionTypeSingleChoice
}

// ExamRequest converts e to the create payload used by the HTTP API.
func (e *Exam) ExamRequest() *model.CreateExamRequest {
	active := !e.Inactive
	return &model.CreateExamRequest{
		Title:           e.Title,
		Description:     e.Description,
		DurationMinutes: e.DurationMinutes,
		Difficulty:      e.Difficulty,
		Active:          &active,
		Price:           e.Price,
		PassingScore:    e.PassingScore,
		Category:        e.Category,
		IsFree:          e.Free,
		Language:        e.Language,
	}
}

// QuestionRequests converts the questions of e, numbered in document order.
func (e *Exam) QuestionRequests() []*model.AddQuestionRequest {
	out := make([]*model.AddQuestionRequest, len(e.Questions))
	for i, q := range e.Questions {
		opts := make([]model.AddOptionRequest, len(q.Options))
		for j, o := range q.Options {
			opts[j] = model.AddOptionRequest{Text: o.Text, IsCorrect: o.Correct}
		}
		out[i] = &model.AddQuestionRequest{
			Text:         q.Text,
			Type:         string(q.QuestionType()),
			Explanation:  q.Explanation,
			Category:     q.Category,
			Difficulty:   q.Difficulty,
			Points:       q.Points,
			Tags:         q.Tags,
			ReferenceURL: q.Reference,
			Language:     q.Language,
			OrderNum:     i + 1,
			Options:      opts,
		}
	}
	return out
}
