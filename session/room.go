package session

import (
	"context"
	"log/slog"
	"sync"

	"imposter-server/feedback"
	"imposter-server/game"
	"imposter-server/gameerrors"
	"imposter-server/settings"
	"imposter-server/words"
)

// Corpus is what a room needs from the word corpus.
type Corpus interface {
	game.WordSource
	CategoryIDs() []string
	Category(id string) (words.Category, bool)
}

// SettingsStore is what a room needs from the persisted settings.
type SettingsStore interface {
	game.SettingsProvider
	ToggleDifficulty(d words.Difficulty)
	ToggleCategory(id string)
	SetHintMode(m settings.HintMode) error
	SelectAllDifficulties()
	SelectAllCategories(allIDs []string)
}

type request struct {
	intent Intent
	reply  chan result
}

type result struct {
	snap game.Snapshot
	err  error
}

// Room owns one engine. Every intent goes through Run, so the engine is only
// ever touched by one goroutine.
type Room struct {
	ID string

	engine *game.Engine
	corpus Corpus
	store  SettingsStore
	relay  *relay

	requests  chan request
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newRoom(id string, corpus Corpus, store SettingsStore, engineFor func(feedback.Sink) *game.Engine, base feedback.Sink) *Room {
	rl := &relay{}
	return &Room{
		ID:       id,
		engine:   engineFor(feedback.Multi{base, rl}),
		corpus:   corpus,
		store:    store,
		relay:    rl,
		requests: make(chan request),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run processes intents sequentially until Close. Should be run as a goroutine.
func (r *Room) Run() {
	defer close(r.done)
	for {
		select {
		case req := <-r.requests:
			err := r.apply(req.intent)
			if err != nil && !gameerrors.Silent(err) {
				slog.Debug("intent refused", "tag", "session", "session", r.ID, "intent", req.intent.Type, "err", err)
			}
			req.reply <- result{snap: r.engine.Snapshot(), err: err}
		case <-r.quit:
			return
		}
	}
}

// Do applies in and returns the resulting snapshot. On refusal the snapshot
// still reflects the (unchanged) session alongside the error.
func (r *Room) Do(ctx context.Context, in Intent) (game.Snapshot, error) {
	req := request{intent: in, reply: make(chan result, 1)}
	select {
	case r.requests <- req:
	case <-r.done:
		return game.Snapshot{}, gameerrors.ErrSessionClosed
	case <-ctx.Done():
		return game.Snapshot{}, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res.snap, res.err
	case <-ctx.Done():
		return game.Snapshot{}, ctx.Err()
	}
}

// SetSink routes this room's feedback to sink. nil mutes it.
func (r *Room) SetSink(sink feedback.Sink) {
	r.relay.set(sink)
}

// Close stops Run. Safe to call more than once.
func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.quit) })
}

// Done is closed once Run has returned.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

func (r *Room) apply(in Intent) error {
	e := r.engine
	switch in.Type {
	case IntentSync:
		return nil
	case IntentStartNewGame:
		return e.StartNewGame()
	case IntentAddPlayer:
		return e.AddPlayer()
	case IntentRemovePlayer:
		return e.RemovePlayer(in.Index)
	case IntentUpdatePlayerName:
		return e.UpdatePlayerName(in.Index, in.Name)
	case IntentSetImposterCount:
		return e.SetImposterCount(in.Count)
	case IntentProceedToSettings:
		return e.ProceedToSettings()
	case IntentGoBackToPlayerSetup:
		return e.GoBackToPlayerSetup()
	case IntentBeginRoleReveal:
		return e.BeginRoleReveal()
	case IntentPlayerReady:
		return e.PlayerReady()
	case IntentFlipCard:
		return e.FlipCard()
	case IntentMoveToNextPlayer:
		return e.MoveToNextPlayer()
	case IntentEndGame:
		return e.EndGame()
	case IntentRevealImposters:
		return e.RevealImposters()
	case IntentRevealWord:
		return e.RevealWord()
	case IntentPlayAgain:
		return e.PlayAgain()
	case IntentReturnHome:
		return e.ReturnHome()
	case IntentToggleSound:
		e.ToggleSound()
		return nil
	case IntentToggleHaptics:
		e.ToggleHaptics()
		return nil
	case IntentToggleDifficulty, IntentToggleCategory, IntentSetHintMode,
		IntentSelectAllDifficulties, IntentSelectAllCategories:
		if err := r.applySetting(in); err != nil {
			return err
		}
		e.SelectionChanged(string(in.Type))
		return nil
	default:
		return gameerrors.ErrUnknownIntent
	}
}

func (r *Room) applySetting(in Intent) error {
	switch in.Type {
	case IntentToggleDifficulty:
		d, ok := words.ParseDifficulty(in.Value)
		if !ok {
			return gameerrors.ErrInvalidSetting
		}
		r.store.ToggleDifficulty(d)
	case IntentToggleCategory:
		if _, ok := r.corpus.Category(in.Value); !ok {
			return gameerrors.ErrInvalidSetting
		}
		r.store.ToggleCategory(in.Value)
	case IntentSetHintMode:
		m, ok := settings.ParseHintMode(in.Value)
		if !ok {
			return gameerrors.ErrInvalidSetting
		}
		return r.store.SetHintMode(m)
	case IntentSelectAllDifficulties:
		r.store.SelectAllDifficulties()
	case IntentSelectAllCategories:
		r.store.SelectAllCategories(r.corpus.CategoryIDs())
	}
	return nil
}

// relay forwards to a sink that changes as connections come and go.
type relay struct {
	mu   sync.Mutex
	sink feedback.Sink
}

func (r *relay) set(sink feedback.Sink) {
	r.mu.Lock()
	r.sink = sink
	r.mu.Unlock()
}

func (r *relay) Notify(e feedback.Event) {
	r.mu.Lock()
	sink := r.sink
	r.mu.Unlock()
	if sink != nil {
		sink.Notify(e)
	}
}
