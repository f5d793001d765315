package domain

import "errors"

var (
	// ErrNoQuestions is returned when a document yields no recognizable questions.
	ErrNoQuestions = errors.New("no questions found")
	// ErrUnsupportedInput is returned when text cannot be extracted from a source.
	ErrUnsupportedInput = errors.New("unsupported input")
	// ErrOutOfRange indicates a session operation on an empty question sequence.
	ErrOutOfRange = errors.New("question index out of range")
	// ErrSessionNotStarted is returned when answering or finishing before Start.
	ErrSessionNotStarted = errors.New("quiz session not started")
	// ErrSessionFinished is returned when answering after Finish.
	ErrSessionFinished = errors.New("quiz session already finished")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuestion indicates a stored question record is malformed.
	ErrInvalidQuestion = errors.New("invalid question")
)
