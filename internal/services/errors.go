package services

import "errors"

var (
	// ErrUnreadableDocument means the source file could not be opened as the
	// expected container type. Per-page and per-fragment defects inside a
	// readable container are absorbed, never surfaced.
	ErrUnreadableDocument = errors.New("document cannot be read")

	// ErrNoQuestionArray means the model's reply held no locatable question
	// array (neither an object with a "questions" list nor a bare list).
	ErrNoQuestionArray = errors.New("no question array found in model output")

	// ErrEmptyQuiz means a question array was present but every candidate was
	// dropped during validation.
	ErrEmptyQuiz = errors.New("no usable questions in model output")

	// ErrEmptyResponse means the model returned no candidate text at all.
	ErrEmptyResponse = errors.New("model returned empty response")
)
