package entity

import "fmt"

// ErrorKind is the taxonomy of errors the dispatcher maps to transport status codes.
type ErrorKind string

const (
	KindNotFound      ErrorKind = "not_found"
	KindForbidden     ErrorKind = "forbidden"
	KindPreconditions ErrorKind = "preconditions"
	KindConflict      ErrorKind = "conflict"
	KindInvalidInput  ErrorKind = "invalid_input"
	KindInternal      ErrorKind = "internal"
)

// GameError is the error shape returned by every domain operation: an enum
// plus a human message, never a stack trace.
type GameError struct {
	Kind    ErrorKind
	Message string
}

func (e *GameError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewError(kind ErrorKind, message string) *GameError {
	return &GameError{Kind: kind, Message: message}
}

func IsKind(err error, kind ErrorKind) bool {
	ge, ok := err.(*GameError)
	return ok && ge.Kind == kind
}

// Sentinel errors, one package-level var per failure mode, in the style of
// entity.ErrRoomNotFound and friends.
var (
	ErrSessionNotFound     = NewError(KindNotFound, "session not found")
	ErrParticipantNotFound = NewError(KindNotFound, "participant not found")

	ErrForbidden   = NewError(KindForbidden, "action not permitted")
	ErrHostOnly    = NewError(KindForbidden, "only the host may perform this action")
	ErrNonHostOnly = NewError(KindForbidden, "the host may not perform this action")
	ErrWrongRole   = NewError(KindForbidden, "participant does not hold the required role")

	ErrWrongPhase         = NewError(KindPreconditions, "action not allowed in the current phase")
	ErrPhaseNotStarted    = NewError(KindPreconditions, "phase has not been woken by the host yet")
	ErrParticipantDead    = NewError(KindPreconditions, "participant is not alive")
	ErrNotEnoughPlayers   = NewError(KindPreconditions, "not enough non-host participants")
	ErrSessionNotLobby    = NewError(KindPreconditions, "session is not in the lobby phase")
	ErrSessionFull        = NewError(KindPreconditions, "session has reached its capacity")
	ErrNicknameInUse      = NewError(KindPreconditions, "display name already in use")
	ErrLeaveRequestExists = NewError(KindPreconditions, "a pending leave request already exists")

	ErrPhaseConflict = NewError(KindConflict, "expected source phase no longer matches")

	ErrInvalidTarget    = NewError(KindInvalidInput, "invalid or dead target")
	ErrInvalidInput     = NewError(KindInvalidInput, "missing or malformed fields")
	ErrCannotTargetSelf = NewError(KindInvalidInput, "cannot target self")

	ErrInternal = NewError(KindInternal, "internal error")
)
