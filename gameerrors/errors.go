package gameerrors

import "errors"

// Refusal sentinel errors. A refused intent leaves the session unchanged.
// Shared by the game, session and ws packages to avoid circular imports.
var (
	ErrWrongPhase          = errors.New("intent not allowed in the current phase")
	ErrInvalidRosterSize   = errors.New("roster size must stay between 3 and 12 players")
	ErrPlayerIndex         = errors.New("player index out of range")
	ErrIncompleteSetup     = errors.New("every player needs a name and at least 3 players are required")
	ErrNoCandidateWords    = errors.New("no words match the selected categories and difficulties")
	ErrOutOfSequenceReveal = errors.New("reveal step out of sequence")
	ErrInvalidSetting      = errors.New("unknown difficulty, category or hint mode")
	ErrUnknownIntent       = errors.New("unknown intent")
)

// Session host sentinel errors.
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionClosed      = errors.New("session closed")
	ErrInvalidResumeToken = errors.New("invalid resume token")
	ErrSessionTakenOver   = errors.New("session taken over by another connection")
)

// Code returns a short machine-readable reason for err, suitable for clients.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, ErrInvalidRosterSize):
		return "invalid_roster_size"
	case errors.Is(err, ErrPlayerIndex):
		return "player_index"
	case errors.Is(err, ErrIncompleteSetup):
		return "incomplete_setup"
	case errors.Is(err, ErrNoCandidateWords):
		return "no_candidate_words"
	case errors.Is(err, ErrOutOfSequenceReveal):
		return "out_of_sequence_reveal"
	case errors.Is(err, ErrInvalidSetting):
		return "invalid_setting"
	case errors.Is(err, ErrUnknownIntent):
		return "unknown_intent"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrSessionClosed):
		return "session_closed"
	case errors.Is(err, ErrInvalidResumeToken):
		return "invalid_resume_token"
	case errors.Is(err, ErrSessionTakenOver):
		return "session_taken_over"
	default:
		return "internal"
	}
}

// Silent reports whether err is a refusal the UI never surfaces: the device
// simply re-renders the unchanged state.
func Silent(err error) bool {
	return errors.Is(err, ErrInvalidRosterSize) || errors.Is(err, ErrOutOfSequenceReveal)
}
