// Package errs defines the error taxonomy shared by the game engine.
//
// Every error returned by the core belongs to exactly one kind. Specific
// conditions (ErrAllBallsDrawn, ErrQuestionNotFound, ...) match both
// themselves and their kind through errors.Is, so callers can branch on
// whichever granularity they need.
package errs

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidState       = errors.New("invalid state")
	ErrAlreadyClaimed     = errors.New("prize already claimed")
	ErrAlreadyAnswered    = errors.New("question already answered")
	ErrTimeExpired        = errors.New("time expired")
	ErrLimitReached       = errors.New("limit reached")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Specific conditions.
var (
	ErrSessionNotFound   = newCondition(ErrNotFound, "session not found")
	ErrPlayerNotFound    = newCondition(ErrNotFound, "player not found")
	ErrTeamNotFound      = newCondition(ErrNotFound, "team not found")
	ErrQuestionNotFound  = newCondition(ErrNotFound, "question not found")
	ErrNoCurrentQuestion = newCondition(ErrNotFound, "no current question")
	ErrNoMoreQuestions   = newCondition(ErrNotFound, "no more questions")

	ErrInactiveSession = newCondition(ErrInvalidState, "session is not active")
	ErrSessionEnded    = newCondition(ErrInvalidState, "session has ended")
	ErrSessionExists   = newCondition(ErrInvalidState, "session code already in use")
	ErrPlayerKicked    = newCondition(ErrInvalidState, "player is not active")
	ErrQuestionBusy    = newCondition(ErrInvalidState, "question is in progress")

	ErrAllBallsDrawn     = newCondition(ErrLimitReached, "all balls drawn")
	ErrRoundLimitReached = newCondition(ErrLimitReached, "round limit reached")

	ErrNicknameTaken = newCondition(ErrInvalidInput, "nickname already taken")
	ErrTeamNameTaken = newCondition(ErrInvalidInput, "team name already taken")
)

// Store conditions. Stores return these; the core translates them into the
// entity-specific conditions above where it knows the entity.
var (
	ErrRecordNotFound = newCondition(ErrNotFound, "record not found")
	ErrDuplicate      = newCondition(ErrInvalidState, "duplicate record")
)

// condition is a named error classified under a kind.
type condition struct {
	kind error
	msg  string
}

func newCondition(kind error, msg string) error {
	return &condition{kind: kind, msg: msg}
}

func (c *condition) Error() string { return c.msg }

// Is reports whether target is this condition's kind.
func (c *condition) Is(target error) bool { return target == c.kind }

// opError annotates an error with the operation that produced it.
type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	switch {
	case e.err != nil && e.kind != nil:
		return fmt.Sprintf("%s: %v: %v", e.op, e.kind, e.err)
	case e.err != nil:
		return fmt.Sprintf("%s: %v", e.op, e.err)
	default:
		return fmt.Sprintf("%s: %v", e.op, e.kind)
	}
}

func (e *opError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.kind != nil {
		out = append(out, e.kind)
	}
	if e.err != nil {
		out = append(out, e.err)
	}
	return out
}

// Wrap annotates err with op. It returns nil when err is nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, err: err}
}

// NewKind returns an error of the given kind produced by op.
func NewKind(op string, kind error) error {
	return &opError{op: op, kind: kind}
}

// WrapKind classifies err under kind and annotates it with op.
func WrapKind(op string, kind, err error) error {
	return &opError{op: op, kind: kind, err: err}
}

// Invalidf builds an ErrInvalidInput error with a formatted detail.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}

// Statef builds an ErrInvalidState error with a formatted detail.
func Statef(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidState}, args...)...)
}

// Kinds lists every error kind in priority order.
var Kinds = []error{
	ErrNotFound,
	ErrInvalidInput,
	ErrInvalidState,
	ErrAlreadyClaimed,
	ErrAlreadyAnswered,
	ErrTimeExpired,
	ErrLimitReached,
	ErrInvalidCredentials,
}

// KindOf returns the kind err belongs to, or nil when it is unclassified.
func KindOf(err error) error {
	for _, k := range Kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
