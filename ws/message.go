package ws

import "imposter-server/feedback"

// --- Client-to-Server messages ---

// IntentMsg carries one user intent. Type is a session.IntentType; the other
// fields are read only by the intents that need them.
type IntentMsg struct {
	Type  string `json:"type"`
	Index int    `json:"index,omitempty"`
	Name  string `json:"name,omitempty"`
	Count int    `json:"count,omitempty"`
	Value string `json:"value,omitempty"`
}

// --- Server-to-Client messages ---
// The session state itself is sent as game.Snapshot (type "state").

// SessionMsg is sent once per connection, before the first state.
type SessionMsg struct {
	Type        string `json:"type"`
	SessionID   string `json:"sessionId"`
	ResumeToken string `json:"resumeToken"`
	Resumed     bool   `json:"resumed"`
}

// ErrorMsg is sent when an intent is refused. Code is a gameerrors code.
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FeedbackMsg asks the device to play a sound and/or haptic pulse.
type FeedbackMsg struct {
	Type       string          `json:"type"`
	Transition string          `json:"transition"`
	Sound      feedback.Sound  `json:"sound,omitempty"`
	Haptic     feedback.Haptic `json:"haptic,omitempty"`
}
