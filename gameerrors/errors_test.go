package gameerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrIncompleteSetup, "incomplete_setup"},
		{fmt.Errorf("begin reveal: %w", ErrNoCandidateWords), "no_candidate_words"},
		{ErrOutOfSequenceReveal, "out_of_sequence_reveal"},
		{ErrSessionNotFound, "session_not_found"},
		{ErrInvalidSetting, "invalid_setting"},
		{ErrSessionTakenOver, "session_taken_over"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := Code(tt.err); got != tt.want {
			t.Errorf("Code(%v): expected %q, got %q", tt.err, tt.want, got)
		}
	}
}

func TestSilent(t *testing.T) {
	if !Silent(ErrInvalidRosterSize) || !Silent(fmt.Errorf("x: %w", ErrOutOfSequenceReveal)) {
		t.Error("expected roster size and reveal sequence refusals to be silent")
	}
	for _, err := range []error{nil, ErrWrongPhase, ErrIncompleteSetup, ErrNoCandidateWords} {
		if Silent(err) {
			t.Errorf("expected %v to be surfaced", err)
		}
	}
}
