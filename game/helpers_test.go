package game

import (
	"math/rand"
	"testing"

	"imposter-server/feedback"
	"imposter-server/settings"
	"imposter-server/words"
)

// fakeSettings is an in-memory SettingsProvider.
type fakeSettings struct {
	cur settings.GameSettings
}

func (f *fakeSettings) Current() settings.GameSettings { return f.cur }

func (f *fakeSettings) ToggleSound() bool {
	f.cur.SoundEnabled = !f.cur.SoundEnabled
	return f.cur.SoundEnabled
}

func (f *fakeSettings) ToggleHaptics() bool {
	f.cur.HapticsEnabled = !f.cur.HapticsEnabled
	return f.cur.HapticsEnabled
}

// recorder captures feedback events.
type recorder struct {
	events []feedback.Event
}

func (r *recorder) Notify(e feedback.Event) { r.events = append(r.events, e) }

func (r *recorder) transitions() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Transition
	}
	return out
}

// emptyDraws reports words available but never yields one, to reach the
// defensive branch of role assignment.
type emptyDraws struct{}

func (emptyDraws) RandomWord(words.Filter) (words.Pick, bool) { return words.Pick{}, false }
func (emptyDraws) TotalWordCount(words.Filter) int            { return 1 }

func animalsCorpus(seed int64) *words.Corpus {
	return words.NewCorpus([]words.Category{
		{ID: "Animals", Name: "Animals", Icon: "pawprint.fill", Words: map[words.Difficulty][]string{
			words.Kids: {"Elephant"},
		}},
	}, rand.New(rand.NewSource(seed)))
}

func kidsAnimalsSettings() *fakeSettings {
	return &fakeSettings{cur: settings.GameSettings{
		SelectedDifficulties: map[words.Difficulty]bool{words.Kids: true},
		SelectedCategoryIDs:  map[string]bool{"Animals": true},
		HintMode:             settings.HintOnlyIfStarts,
		SoundEnabled:         true,
		HapticsEnabled:       true,
	}}
}

func newTestEngine(t *testing.T, seed int64) (*Engine, *fakeSettings, *recorder) {
	t.Helper()
	fs := kidsAnimalsSettings()
	rec := &recorder{}
	e := NewEngine(animalsCorpus(seed), fs, rec, rand.New(rand.NewSource(seed)))
	return e, fs, rec
}

// setupRoster starts a new game with one player per name.
func setupRoster(t *testing.T, e *Engine, names ...string) {
	t.Helper()
	if err := e.StartNewGame(); err != nil {
		t.Fatalf("StartNewGame: %v", err)
	}
	for len(e.session.Players) < len(names) {
		if err := e.AddPlayer(); err != nil {
			t.Fatalf("AddPlayer: %v", err)
		}
	}
	for i, n := range names {
		if err := e.UpdatePlayerName(i, n); err != nil {
			t.Fatalf("UpdatePlayerName(%d): %v", i, err)
		}
	}
}

// startReveal drives a named roster through to the role reveal phase.
func startReveal(t *testing.T, e *Engine, imposters int, names ...string) {
	t.Helper()
	setupRoster(t, e, names...)
	if err := e.ProceedToSettings(); err != nil {
		t.Fatalf("ProceedToSettings: %v", err)
	}
	if err := e.SetImposterCount(imposters); err != nil {
		t.Fatalf("SetImposterCount: %v", err)
	}
	if err := e.BeginRoleReveal(); err != nil {
		t.Fatalf("BeginRoleReveal: %v", err)
	}
}

// revealAll passes the phone around until everyone has seen their card.
func revealAll(t *testing.T, e *Engine) {
	t.Helper()
	for e.Phase() == RoleReveal {
		if err := e.PlayerReady(); err != nil {
			t.Fatalf("PlayerReady: %v", err)
		}
		if err := e.FlipCard(); err != nil {
			t.Fatalf("FlipCard: %v", err)
		}
		if err := e.MoveToNextPlayer(); err != nil {
			t.Fatalf("MoveToNextPlayer: %v", err)
		}
	}
}

func countImposters(s *Session) int {
	return len(s.Imposters())
}
