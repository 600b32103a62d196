package model

import (
	"encoding/json"
	"testing"
)

func TestAnswerUnmarshal(t *testing.T) {
	var m AnswerMap
	raw := `{"q1":"a","q2":["a","c"],"q3":null,"q4":"","q5":[]}`
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if a := m["q1"]; a.Multiple || len(a.Selected) != 1 || a.Selected[0] != "a" {
		t.Errorf("q1 = %+v", a)
	}
	if a := m["q2"]; !a.Multiple || len(a.Selected) != 2 || !a.Contains("c") {
		t.Errorf("q2 = %+v", a)
	}
	if !m["q3"].Empty() || !m["q4"].Empty() || !m["q5"].Empty() {
		t.Errorf("q3/q4/q5 should be empty: %+v %+v %+v", m["q3"], m["q4"], m["q5"])
	}
}

func TestAnswerUnmarshalRejectsNumbers(t *testing.T) {
	var a Answer
	if err := json.Unmarshal([]byte(`42`), &a); err == nil {
		t.Fatal("expected error for numeric answer")
	}
}

func TestAnswerMarshalKeepsShape(t *testing.T) {
	out, err := json.Marshal(AnswerMap{"s": SingleAnswer("x"), "m": MultiAnswer("a", "b")})
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if _, ok := back["s"].(string); !ok {
		t.Errorf("single answer should be a string: %s", out)
	}
	if _, ok := back["m"].([]any); !ok {
		t.Errorf("multi answer should be an array: %s", out)
	}
}
