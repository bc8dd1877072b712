package game

import (
	"math/rand"

	"imposter-server/feedback"
	"imposter-server/gameerrors"
	"imposter-server/settings"
	"imposter-server/words"
)

// WordSource abstracts the word corpus so tests can supply fixed data.
type WordSource interface {
	RandomWord(f words.Filter) (words.Pick, bool)
	TotalWordCount(f words.Filter) int
}

// SettingsProvider abstracts the persisted settings store.
type SettingsProvider interface {
	Current() settings.GameSettings
	ToggleSound() bool
	ToggleHaptics() bool
}

// Engine applies user intents to a Session. Every method either commits a
// valid transition and notifies the feedback sink, or returns a gameerrors
// sentinel and leaves the session unchanged.
//
// Engine is not safe for concurrent use; session.Room serializes access.
type Engine struct {
	session  *Session
	words    WordSource
	settings SettingsProvider
	gate     *feedback.Gate
	rng      *rand.Rand
}

// NewEngine creates an engine in the home phase. sink may be nil.
func NewEngine(src WordSource, sp SettingsProvider, sink feedback.Sink, rng *rand.Rand) *Engine {
	if sink == nil {
		sink = feedback.Discard
	}
	cur := sp.Current()
	return &Engine{
		session:  NewSession(),
		words:    src,
		settings: sp,
		gate:     feedback.NewGate(sink, cur.SoundEnabled, cur.HapticsEnabled),
		rng:      rng,
	}
}

// Session returns a copy of the current session.
func (e *Engine) Session() *Session {
	return e.session.Clone()
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	return e.session.Phase
}

func (e *Engine) notify(transition string, sound feedback.Sound, haptic feedback.Haptic) {
	cur := e.settings.Current()
	e.gate.SetEnabled(cur.SoundEnabled, cur.HapticsEnabled)
	e.gate.Notify(feedback.Event{Transition: transition, Sound: sound, Haptic: haptic})
}

func (e *Engine) require(phases ...Phase) error {
	for _, p := range phases {
		if e.session.Phase == p {
			return nil
		}
	}
	return gameerrors.ErrWrongPhase
}

// MaxImposters returns max(1, players-2).
func (e *Engine) MaxImposters() int {
	return e.session.MaxImposters()
}

// CanProceedToGameSettings reports whether ProceedToSettings would succeed on roster grounds.
func (e *Engine) CanProceedToGameSettings() bool {
	return e.session.CanProceedToGameSettings()
}

// CanStartGame reports whether at least one difficulty and one category are
// selected and the corpus has words for that combination.
func (e *Engine) CanStartGame() bool {
	return e.canStartGame(e.settings.Current())
}

func (e *Engine) canStartGame(cur settings.GameSettings) bool {
	if len(cur.SelectedDifficulties) == 0 || len(cur.SelectedCategoryIDs) == 0 {
		return false
	}
	return e.words.TotalWordCount(cur.Filter()) > 0
}

// ImposterGetsHint reports whether p sees the category hint under the current hint mode.
func (e *Engine) ImposterGetsHint(p Player) bool {
	start, ok := e.session.StartingPlayer()
	return HintVisible(e.settings.Current().HintMode, p.IsImposter, ok && start.ID == p.ID)
}

// StartNewGame discards any current game and seeds a roster of empty-named players.
func (e *Engine) StartNewGame() error {
	s := e.session
	s.reset()
	s.Players = make([]Player, 0, MaxPlayers)
	for i := 0; i < DefaultPlayerCount; i++ {
		s.Players = append(s.Players, NewPlayer(""))
	}
	s.Phase = PlayerSetup
	e.notify("start_new_game", feedback.SoundButtonTap, feedback.HapticMedium)
	return nil
}

// AddPlayer appends an empty-named player.
func (e *Engine) AddPlayer() error {
	if err := e.require(PlayerSetup); err != nil {
		return err
	}
	if len(e.session.Players) >= MaxPlayers {
		return gameerrors.ErrInvalidRosterSize
	}
	e.session.Players = append(e.session.Players, NewPlayer(""))
	e.notify("add_player", feedback.SoundNone, feedback.HapticLight)
	return nil
}

// RemovePlayer removes the player at index and clamps the imposter count.
func (e *Engine) RemovePlayer(index int) error {
	if err := e.require(PlayerSetup); err != nil {
		return err
	}
	s := e.session
	if len(s.Players) <= MinPlayers {
		return gameerrors.ErrInvalidRosterSize
	}
	if index < 0 || index >= len(s.Players) {
		return gameerrors.ErrPlayerIndex
	}
	s.Players = append(s.Players[:index], s.Players[index+1:]...)
	s.clampImposterCount()
	e.notify("remove_player", feedback.SoundNone, feedback.HapticMedium)
	return nil
}

// UpdatePlayerName overwrites a name verbatim. Blank names are caught by ProceedToSettings.
func (e *Engine) UpdatePlayerName(index int, name string) error {
	if err := e.require(PlayerSetup); err != nil {
		return err
	}
	if index < 0 || index >= len(e.session.Players) {
		return gameerrors.ErrPlayerIndex
	}
	e.session.Players[index].Name = name
	return nil
}

// SetImposterCount sets the requested imposter count, clamped to [1, MaxImposters].
func (e *Engine) SetImposterCount(n int) error {
	if err := e.require(PlayerSetup, GameSettings); err != nil {
		return err
	}
	e.session.ImposterCount = n
	e.session.clampImposterCount()
	return nil
}

// ProceedToSettings moves from player setup to game settings.
func (e *Engine) ProceedToSettings() error {
	if err := e.require(PlayerSetup); err != nil {
		return err
	}
	if !e.session.CanProceedToGameSettings() {
		return gameerrors.ErrIncompleteSetup
	}
	e.session.Phase = GameSettings
	e.notify("proceed_to_settings", feedback.SoundButtonTap, feedback.HapticLight)
	return nil
}

// GoBackToPlayerSetup returns from game settings to player setup.
func (e *Engine) GoBackToPlayerSetup() error {
	if err := e.require(GameSettings); err != nil {
		return err
	}
	e.session.Phase = PlayerSetup
	e.notify("go_back_to_player_setup", feedback.SoundButtonTap, feedback.HapticLight)
	return nil
}

// BeginRoleReveal assigns roles and starts the reveal cycle.
func (e *Engine) BeginRoleReveal() error {
	if err := e.require(GameSettings); err != nil {
		return err
	}
	cur := e.settings.Current()
	if !e.canStartGame(cur) {
		return gameerrors.ErrNoCandidateWords
	}
	return e.startRound(cur, "begin_role_reveal")
}

// PlayAgain keeps the roster and settings and deals a fresh round.
// The settings gate is not re-checked; only a failed word draw refuses.
func (e *Engine) PlayAgain() error {
	if err := e.require(EndGame); err != nil {
		return err
	}
	return e.startRound(e.settings.Current(), "play_again")
}

func (e *Engine) startRound(cur settings.GameSettings, transition string) error {
	if err := e.assignRoles(cur); err != nil {
		return err
	}
	e.selectStartingPlayer()
	s := e.session
	s.CurrentRevealIndex = 0
	s.ShowPassPhoneScreen = true
	s.IsCardFlipped = false
	s.ShowImposterReveal = false
	s.ShowWordReveal = false
	s.Phase = RoleReveal
	e.notify(transition, feedback.SoundWhoosh, feedback.HapticMedium)
	return nil
}

// PlayerReady acknowledges that the phone reached the current player.
func (e *Engine) PlayerReady() error {
	if err := e.require(RoleReveal); err != nil {
		return err
	}
	if !e.session.ShowPassPhoneScreen {
		return gameerrors.ErrOutOfSequenceReveal
	}
	e.session.ShowPassPhoneScreen = false
	e.notify("player_ready", feedback.SoundButtonTap, feedback.HapticLight)
	return nil
}

// FlipCard shows the current player their role. Once per player per cycle.
func (e *Engine) FlipCard() error {
	if err := e.require(RoleReveal); err != nil {
		return err
	}
	s := e.session
	if s.ShowPassPhoneScreen || s.IsCardFlipped || s.AllPlayersRevealed() {
		return gameerrors.ErrOutOfSequenceReveal
	}
	s.IsCardFlipped = true
	s.Players[s.CurrentRevealIndex].HasRevealedRole = true
	e.notify("flip_card", feedback.SoundCardFlip, feedback.HapticMedium)
	return nil
}

// MoveToNextPlayer advances the reveal cursor; past the last player the game
// moves to playing.
func (e *Engine) MoveToNextPlayer() error {
	if err := e.require(RoleReveal); err != nil {
		return err
	}
	s := e.session
	if !s.IsCardFlipped {
		return gameerrors.ErrOutOfSequenceReveal
	}
	s.CurrentRevealIndex++
	s.IsCardFlipped = false
	s.ShowPassPhoneScreen = true

	if s.AllPlayersRevealed() {
		s.Phase = Playing
		e.notify("reveal_complete", feedback.SoundReveal, feedback.HapticSuccess)
		return nil
	}
	e.notify("move_to_next_player", feedback.SoundWhoosh, feedback.HapticLight)
	return nil
}

// EndGame closes the discussion round.
func (e *Engine) EndGame() error {
	if err := e.require(Playing); err != nil {
		return err
	}
	s := e.session
	s.Phase = EndGame
	s.ShowImposterReveal = false
	s.ShowWordReveal = false
	e.notify("end_game", feedback.SoundReveal, feedback.HapticWarning)
	return nil
}

// RevealImposters discloses the imposters. Repeated calls are no-ops.
func (e *Engine) RevealImposters() error {
	if err := e.require(EndGame); err != nil {
		return err
	}
	if e.session.ShowImposterReveal {
		return nil
	}
	e.session.ShowImposterReveal = true
	e.notify("reveal_imposters", feedback.SoundImposterReveal, feedback.HapticHeavy)
	return nil
}

// RevealWord discloses the secret word. Only reachable after RevealImposters.
func (e *Engine) RevealWord() error {
	if err := e.require(EndGame); err != nil {
		return err
	}
	s := e.session
	if !s.ShowImposterReveal {
		return gameerrors.ErrOutOfSequenceReveal
	}
	if s.ShowWordReveal {
		return nil
	}
	s.ShowWordReveal = true
	e.notify("reveal_word", feedback.SoundVictory, feedback.HapticSuccess)
	return nil
}

// ReturnHome abandons the session from any phase.
func (e *Engine) ReturnHome() error {
	e.session.reset()
	e.session.Phase = Home
	e.notify("return_home", feedback.SoundButtonTap, feedback.HapticLight)
	return nil
}

// ToggleSound flips the persisted sound setting. The confirming tap only
// sounds when sound was just turned on.
func (e *Engine) ToggleSound() bool {
	on := e.settings.ToggleSound()
	e.notify("toggle_sound", feedback.SoundButtonTap, feedback.HapticSelection)
	return on
}

// ToggleHaptics flips the persisted haptics setting.
func (e *Engine) ToggleHaptics() bool {
	on := e.settings.ToggleHaptics()
	e.notify("toggle_haptics", feedback.SoundNone, feedback.HapticSelection)
	return on
}

// SelectionChanged acknowledges a settings selection made outside the engine
// (difficulty, category, hint mode) with a selection haptic.
func (e *Engine) SelectionChanged(transition string) {
	e.notify(transition, feedback.SoundNone, feedback.HapticSelection)
}
