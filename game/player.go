package game

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Player is one roster entry. ID is stable for the entry's lifetime.
type Player struct {
	ID              string
	Name            string
	IsImposter      bool
	HasRevealedRole bool
}

// NewPlayer creates a Player with a fresh ID.
func NewPlayer(name string) Player {
	return Player{ID: uuid.NewString(), Name: name}
}

// HasName reports whether the trimmed name is non-empty.
func (p Player) HasName() bool {
	return strings.TrimSpace(p.Name) != ""
}

// DisplayName returns the player's name, or "Player N" (1-based seat) when blank.
func (p Player) DisplayName(seat int) string {
	if p.HasName() {
		return p.Name
	}
	return "Player " + strconv.Itoa(seat+1)
}
