package model

// StartSessionRequest is the optional payload for POST /api/simulados/:id/sessoes.
type StartSessionRequest struct {
	Language string `json:"language" binding:"omitempty,oneof=pt en es fr"`
}

// AnswerRequest selects (or, for multiple choice, toggles) one option.
type AnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required,uuid"`
	OptionID   string `json:"option_id" binding:"required,uuid"`
}

// NavigateRequest moves by Delta, or jumps to Index when it is set.
type NavigateRequest struct {
	Delta int  `json:"delta" binding:"min=-1,max=1"`
	Index *int `json:"index" binding:"omitempty,min=0"`
}

// KeyRequest forwards one keyboard shortcut, e.g. "ArrowRight", "3", "h" or "Ctrl+Enter".
type KeyRequest struct {
	Key string `json:"key" binding:"required,max=20"`
}
