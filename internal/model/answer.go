package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Answer is what a taker selected for one question: a single option id for
// single-choice questions, a set of option ids for multiple-choice ones.
// On the wire a single answer is a JSON string and a set is a JSON array.
type Answer struct {
	Selected []string
	Multiple bool
}

// SingleAnswer builds a single-choice answer.
func SingleAnswer(optionID string) Answer {
	return Answer{Selected: []string{optionID}}
}

// MultiAnswer builds a multiple-choice answer from the given option ids.
func MultiAnswer(optionIDs ...string) Answer {
	sel := make([]string, len(optionIDs))
	copy(sel, optionIDs)
	return Answer{Selected: sel, Multiple: true}
}

// Empty reports whether nothing is selected.
func (a Answer) Empty() bool {
	return len(a.Selected) == 0
}

// Contains reports whether optionID is selected.
func (a Answer) Contains(optionID string) bool {
	for _, s := range a.Selected {
		if s == optionID {
			return true
		}
	}
	return false
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.Multiple {
		if a.Selected == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.Selected)
	}
	if len(a.Selected) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(a.Selected[0])
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = Answer{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*a = Answer{}
			return nil
		}
		*a = SingleAnswer(s)
		return nil
	case len(data) > 0 && data[0] == '[':
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}
		*a = MultiAnswer(ids...)
		return nil
	default:
		return fmt.Errorf("answer must be a string or an array of strings, got %s", data)
	}
}

// AnswerMap maps question ids to the taker's answer.
type AnswerMap map[string]Answer
