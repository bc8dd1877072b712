package game

import "imposter-server/words"

// Roster limits.
const (
	MinPlayers         = 3
	MaxPlayers         = 12
	DefaultPlayerCount = 3
	// MinNonImposters is how many players must know the word.
	MinNonImposters = 2
)

// Session is the authoritative record of the current game. It is mutated only
// by Engine; callers get copies.
type Session struct {
	Phase               Phase
	Players             []Player
	ImposterCount       int
	CurrentRevealIndex  int
	SelectedWord        string
	SelectedCategory    *words.Category
	StartingPlayerIndex int

	// Reveal sub-state for the current player.
	ShowPassPhoneScreen bool
	IsCardFlipped       bool

	// End-of-game disclosure, strictly imposters then word.
	ShowImposterReveal bool
	ShowWordReveal     bool
}

// NewSession returns a session in the home phase.
func NewSession() *Session {
	s := &Session{}
	s.reset()
	return s
}

// reset clears everything, leaving the phase untouched.
func (s *Session) reset() {
	s.Players = nil
	s.ImposterCount = 1
	s.CurrentRevealIndex = 0
	s.SelectedWord = ""
	s.SelectedCategory = nil
	s.StartingPlayerIndex = 0
	s.ShowPassPhoneScreen = true
	s.IsCardFlipped = false
	s.ShowImposterReveal = false
	s.ShowWordReveal = false
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	c.Players = append([]Player(nil), s.Players...)
	if s.SelectedCategory != nil {
		cat := *s.SelectedCategory
		c.SelectedCategory = &cat
	}
	return &c
}

// MaxImposters is the largest imposter count that leaves two non-imposters.
func (s *Session) MaxImposters() int {
	return max(1, len(s.Players)-MinNonImposters)
}

// clampImposterCount keeps ImposterCount within [1, MaxImposters].
func (s *Session) clampImposterCount() {
	s.ImposterCount = min(max(s.ImposterCount, 1), s.MaxImposters())
}

// CanProceedToGameSettings reports whether the roster is large enough and every name is filled in.
func (s *Session) CanProceedToGameSettings() bool {
	if len(s.Players) < MinPlayers {
		return false
	}
	for _, p := range s.Players {
		if !p.HasName() {
			return false
		}
	}
	return true
}

// CurrentPlayer returns the player whose turn it is to view their role.
func (s *Session) CurrentPlayer() (Player, bool) {
	if s.CurrentRevealIndex < 0 || s.CurrentRevealIndex >= len(s.Players) {
		return Player{}, false
	}
	return s.Players[s.CurrentRevealIndex], true
}

// AllPlayersRevealed reports whether the reveal cursor has passed the last player.
func (s *Session) AllPlayersRevealed() bool {
	return s.CurrentRevealIndex >= len(s.Players)
}

// StartingPlayer returns the player who opens the discussion.
func (s *Session) StartingPlayer() (Player, bool) {
	if s.StartingPlayerIndex < 0 || s.StartingPlayerIndex >= len(s.Players) {
		return Player{}, false
	}
	return s.Players[s.StartingPlayerIndex], true
}

// Imposters returns the imposters in roster order.
func (s *Session) Imposters() []Player {
	var out []Player
	for _, p := range s.Players {
		if p.IsImposter {
			out = append(out, p)
		}
	}
	return out
}

// NonImposters returns the players who know the word, in roster order.
func (s *Session) NonImposters() []Player {
	var out []Player
	for _, p := range s.Players {
		if !p.IsImposter {
			out = append(out, p)
		}
	}
	return out
}
