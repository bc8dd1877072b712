package game

// PlayerView is the client-facing representation of a roster entry.
// It never carries the player's role.
type PlayerView struct {
	ID              string `json:"id"`
	Seat            int    `json:"seat"`
	Name            string `json:"name"`
	DisplayName     string `json:"displayName"`
	HasRevealedRole bool   `json:"hasRevealedRole"`
}

// CategoryView is the client-facing representation of a word category.
type CategoryView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// RoleCardView is the face of the current player's card once flipped.
// Word is empty for imposters; Category is set for non-imposters and for
// imposters who get the hint.
type RoleCardView struct {
	IsImposter bool          `json:"isImposter"`
	Word       string        `json:"word,omitempty"`
	Category   *CategoryView `json:"category,omitempty"`
	ShowHint   bool          `json:"showHint"`
}

// Snapshot is the full session view sent to the device after every intent.
// Secrets appear only at the point the UI would show them.
type Snapshot struct {
	Type  string `json:"type"`
	Phase string `json:"phase"`

	Players                  []PlayerView `json:"players"`
	ImposterCount            int          `json:"imposterCount"`
	MaxImposters             int          `json:"maxImposters"`
	CanProceedToGameSettings bool         `json:"canProceedToGameSettings"`
	CanStartGame             bool         `json:"canStartGame"`

	HintMode       string `json:"hintMode"`
	SoundEnabled   bool   `json:"soundEnabled"`
	HapticsEnabled bool   `json:"hapticsEnabled"`

	CurrentRevealIndex  int           `json:"currentRevealIndex"`
	CurrentPlayer       *PlayerView   `json:"currentPlayer,omitempty"`
	ShowPassPhoneScreen bool          `json:"showPassPhoneScreen"`
	IsCardFlipped       bool          `json:"isCardFlipped"`
	RoleCard            *RoleCardView `json:"roleCard,omitempty"`

	StartingPlayer *PlayerView `json:"startingPlayer,omitempty"`

	ShowImposterReveal bool          `json:"showImposterReveal"`
	Imposters          []PlayerView  `json:"imposters,omitempty"`
	ShowWordReveal     bool          `json:"showWordReveal"`
	Word               string        `json:"word,omitempty"`
	Category           *CategoryView `json:"category,omitempty"`
	ImposterTotal      int           `json:"imposterTotal,omitempty"`
	CrewTotal          int           `json:"crewTotal,omitempty"`
}

// BuildPlayerView creates a PlayerView for the player in seat.
func BuildPlayerView(p Player, seat int) PlayerView {
	return PlayerView{
		ID:              p.ID,
		Seat:            seat,
		Name:            p.Name,
		DisplayName:     p.DisplayName(seat),
		HasRevealedRole: p.HasRevealedRole,
	}
}

func (s *Session) categoryView() *CategoryView {
	if s.SelectedCategory == nil {
		return nil
	}
	return &CategoryView{ID: s.SelectedCategory.ID, Name: s.SelectedCategory.Name, Icon: s.SelectedCategory.Icon}
}

// Snapshot builds the client view of the session.
func (e *Engine) Snapshot() Snapshot {
	s := e.session
	cur := e.settings.Current()

	snap := Snapshot{
		Type:                     "state",
		Phase:                    s.Phase.String(),
		Players:                  make([]PlayerView, len(s.Players)),
		ImposterCount:            s.ImposterCount,
		MaxImposters:             s.MaxImposters(),
		CanProceedToGameSettings: s.CanProceedToGameSettings(),
		CanStartGame:             e.canStartGame(cur),
		HintMode:                 string(cur.HintMode),
		SoundEnabled:             cur.SoundEnabled,
		HapticsEnabled:           cur.HapticsEnabled,
		CurrentRevealIndex:       s.CurrentRevealIndex,
		ShowPassPhoneScreen:      s.ShowPassPhoneScreen,
		IsCardFlipped:            s.IsCardFlipped,
		ShowImposterReveal:       s.ShowImposterReveal,
		ShowWordReveal:           s.ShowWordReveal,
	}
	for i, p := range s.Players {
		snap.Players[i] = BuildPlayerView(p, i)
	}

	switch s.Phase {
	case RoleReveal:
		if p, ok := s.CurrentPlayer(); ok {
			v := BuildPlayerView(p, s.CurrentRevealIndex)
			snap.CurrentPlayer = &v
			if s.IsCardFlipped {
				snap.RoleCard = e.roleCard(p)
			}
		}
	case Playing, EndGame:
		if p, ok := s.StartingPlayer(); ok {
			v := BuildPlayerView(p, s.StartingPlayerIndex)
			snap.StartingPlayer = &v
		}
	}

	if s.Phase == EndGame && s.ShowImposterReveal {
		for i, p := range s.Players {
			if p.IsImposter {
				snap.Imposters = append(snap.Imposters, BuildPlayerView(p, i))
			}
		}
	}
	if s.Phase == EndGame && s.ShowWordReveal {
		snap.Word = s.SelectedWord
		snap.Category = s.categoryView()
		snap.ImposterTotal = len(s.Imposters())
		snap.CrewTotal = len(s.NonImposters())
	}
	return snap
}

func (e *Engine) roleCard(p Player) *RoleCardView {
	card := &RoleCardView{IsImposter: p.IsImposter}
	if !p.IsImposter {
		card.Word = e.session.SelectedWord
		card.Category = e.session.categoryView()
		return card
	}
	if e.ImposterGetsHint(p) {
		card.ShowHint = true
		card.Category = e.session.categoryView()
	}
	return card
}
