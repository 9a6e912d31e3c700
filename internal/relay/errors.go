package relay

// Code classifies a rejected message. It is sent to clients verbatim.
type Code string

const (
	CodeRoomFull          = Code("room_full")
	CodeGameStarted       = Code("game_already_started")
	CodeNotHost           = Code("not_host")
	CodeSessionNotFound   = Code("session_not_found")
	CodeRejoinFailed      = Code("rejoin_failed")
	CodeGameNotStarted    = Code("game_not_started")
	CodeObjectiveNotFound = Code("objective_not_found")
	CodeAlreadyJoined     = Code("already_joined")
	CodeInvalidPayload    = Code("invalid_payload")
	CodeUnknownEvent      = Code("unknown_event")
	CodeInternal          = Code("internal_error")
)

// Error is a precondition failure for one inbound message. Two errors match
// under errors.Is when their codes match, so callers can compare against the
// sentinels below regardless of message text.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrRoomFull          = &Error{Code: CodeRoomFull, Message: "Room is full"}
	ErrGameStarted       = &Error{Code: CodeGameStarted, Message: "Game already in progress"}
	ErrNotHost           = &Error{Code: CodeNotHost, Message: "Only the host can start the game"}
	ErrSessionNotFound   = &Error{Code: CodeSessionNotFound, Message: "No session for this connection"}
	ErrRejoinFailed      = &Error{Code: CodeRejoinFailed, Message: "Could not find your previous game session"}
	ErrGameNotStarted    = &Error{Code: CodeGameNotStarted, Message: "Game has not started"}
	ErrObjectiveNotFound = &Error{Code: CodeObjectiveNotFound, Message: "Objective not found"}
	ErrAlreadyJoined     = &Error{Code: CodeAlreadyJoined, Message: "Already joined a game"}
	ErrUnknownEvent      = &Error{Code: CodeUnknownEvent, Message: "Unknown event"}

	errDefaultRoomFull    = &Error{Code: CodeRoomFull, Message: "Default room is full. Try creating a new game."}
	errDefaultGameStarted = &Error{Code: CodeGameStarted, Message: "Default game already in progress. Please wait or join another room."}
	errBadRoomCode        = &Error{Code: CodeInvalidPayload, Message: "Room code must be 4 letters or digits"}
)

func invalidPayload(event string) *Error {
	return &Error{Code: CodeInvalidPayload, Message: "Invalid payload for " + event}
}
