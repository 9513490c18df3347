package tui

import "github.com/Veraticus/credit-risk-model/internal/model"

// scoredMsg carries the result of an asynchronous scoring call.
type scoredMsg struct {
	err        error
	prediction model.Prediction
}
