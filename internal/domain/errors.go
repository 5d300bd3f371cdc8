package domain

import "errors"

var (
	// ErrNoQuestionsAvailable is returned when a load finds nothing to serve
	// for the requested mode and filters. Callers should navigate away.
	ErrNoQuestionsAvailable = errors.New("no questions available")
	// ErrNoUser is returned when an operation needs a signed-in user.
	ErrNoUser = errors.New("no signed-in user")
	// ErrMissingFilters is returned when test mode is requested without academy and topic.
	ErrMissingFilters = errors.New("academy and topic are required in test mode")
	// ErrInvalidMode is returned for an unknown quiz mode.
	ErrInvalidMode = errors.New("invalid quiz mode")
	// ErrSubmitRefused is returned when an answer cannot be taken right now:
	// no current question, already revealed, or a submission in flight.
	ErrSubmitRefused = errors.New("answer submission refused")
	// ErrSessionSuperseded is returned when a remote result lands after the
	// session it belonged to was reset or replaced.
	ErrSessionSuperseded = errors.New("quiz session superseded")
	// ErrInvalidQuestion indicates a question violates its invariants.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrInvalidSummary indicates a remote session summary had an unexpected shape.
	ErrInvalidSummary = errors.New("invalid session summary")
	// ErrSessionNotFound is returned when a remote session id is unknown.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionNotFound indicates a requested question id does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrProfileNotFound indicates the user has no profile row yet.
	ErrProfileNotFound = errors.New("profile not found")
)
