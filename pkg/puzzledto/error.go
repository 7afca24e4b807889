package puzzledto

const (
	CodeNoSession      = "no_session"
	CodeInProgress     = "in_progress"
	CodeRoomNotAllowed = "room_not_allowed"
	CodeGeneration     = "generation"
	CodeNotFound       = "not_found"
	CodeNoProfile      = "no_profile"
	CodeEmptyGuess     = "empty_guess"
	CodeConflict       = "conflict"
	CodeInternal       = "internal"
)

type DomainError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "puzzle service error"
}
