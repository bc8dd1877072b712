// Package settings holds the user's persisted game preferences.
//
// The Store loads every value once when opened and writes each change
// straight through to its storage.KV backend. Missing or unreadable values
// fall back to documented defaults.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"imposter-server/storage"
	"imposter-server/words"
)

// Storage keys. Values written by older app versions use the same names.
const (
	keyDifficulties = "selectedDifficulties"
	keyCategoryIDs  = "selectedCategoryIds"
	keyHintMode     = "hintMode"
	keySound        = "soundEnabled"
	keyHaptics      = "hapticsEnabled"
	keyLegacyHints  = "imposterHintsEnabled"
)

const writeTimeout = 5 * time.Second

// HintMode governs whether imposters see the category of the secret word.
type HintMode string

const (
	HintOff          HintMode = "off"
	HintAlways       HintMode = "always"
	HintOnlyIfStarts HintMode = "onlyIfStarts"
)

// ParseHintMode returns the HintMode for s, or false if s is unknown.
func ParseHintMode(s string) (HintMode, bool) {
	switch m := HintMode(s); m {
	case HintOff, HintAlways, HintOnlyIfStarts:
		return m, true
	default:
		return "", false
	}
}

// DisplayName returns the short label for the mode.
func (m HintMode) DisplayName() string {
	switch m {
	case HintOff:
		return "Off"
	case HintAlways:
		return "Always"
	case HintOnlyIfStarts:
		return "If Starts"
	default:
		return string(m)
	}
}

// Description returns a one-line explanation of the mode.
func (m HintMode) Description() string {
	switch m {
	case HintOff:
		return "Imposters never see the category"
	case HintAlways:
		return "All imposters see the category hint"
	case HintOnlyIfStarts:
		return "Imposter only gets hint if chosen to start first"
	default:
		return ""
	}
}

// GameSettings is a point-in-time copy of the user's preferences.
type GameSettings struct {
	SelectedDifficulties map[words.Difficulty]bool
	SelectedCategoryIDs  map[string]bool
	HintMode             HintMode
	SoundEnabled         bool
	HapticsEnabled       bool
}

// Filter returns the corpus filter selected by these settings.
func (s GameSettings) Filter() words.Filter {
	return words.Filter{CategoryIDs: s.SelectedCategoryIDs, Difficulties: s.SelectedDifficulties}
}

// Difficulties returns the selected difficulties in display order.
func (s GameSettings) Difficulties() []words.Difficulty {
	var out []words.Difficulty
	for _, d := range words.AllDifficulties() {
		if s.SelectedDifficulties[d] {
			out = append(out, d)
		}
	}
	return out
}

// CategoryIDs returns the selected category ids, sorted.
func (s GameSettings) CategoryIDs() []string {
	return sortedKeys(s.SelectedCategoryIDs)
}

// Defaults returns the settings used on first run.
func Defaults() GameSettings {
	return GameSettings{
		SelectedDifficulties: allDifficulties(),
		SelectedCategoryIDs:  map[string]bool{},
		HintMode:             HintOnlyIfStarts,
		SoundEnabled:         true,
		HapticsEnabled:       true,
	}
}

// Store is the persisted settings store. It is safe for concurrent use.
type Store struct {
	kv storage.KV

	mu  sync.RWMutex
	cur GameSettings
	// categoriesStored records whether a category selection has ever been saved.
	categoriesStored bool
}

// Open loads settings from kv. Read failures are logged and the affected
// values keep their defaults; Open itself never fails.
func Open(ctx context.Context, kv storage.KV) *Store {
	s := &Store{kv: kv, cur: Defaults()}

	if raw, ok := s.read(ctx, keyDifficulties); ok {
		if ds, err := decodeDifficulties(raw); err != nil {
			slog.Warn("ignoring stored difficulties", "tag", "settings", "err", err)
		} else {
			s.cur.SelectedDifficulties = ds
		}
	}
	if raw, ok := s.read(ctx, keyCategoryIDs); ok {
		if ids, err := decodeStrings(raw); err != nil {
			slog.Warn("ignoring stored categories", "tag", "settings", "err", err)
		} else {
			s.cur.SelectedCategoryIDs = toSet(ids)
			s.categoriesStored = true
		}
	}
	s.cur.HintMode = s.loadHintMode(ctx)
	s.cur.SoundEnabled = s.readBool(ctx, keySound, true)
	s.cur.HapticsEnabled = s.readBool(ctx, keyHaptics, true)
	return s
}

func (s *Store) read(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		slog.Warn("settings read failed; using default", "tag", "settings", "key", key, "err", err)
		return "", false
	}
	return v, ok
}

func (s *Store) readBool(ctx context.Context, key string, fallback bool) bool {
	raw, ok := s.read(ctx, key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("ignoring stored flag", "tag", "settings", "key", key, "value", raw)
		return fallback
	}
	return b
}

// loadHintMode applies the one-time migration from the legacy boolean:
// true maps to always, false to onlyIfStarts.
func (s *Store) loadHintMode(ctx context.Context) HintMode {
	if raw, ok := s.read(ctx, keyHintMode); ok {
		if m, ok := ParseHintMode(raw); ok {
			return m
		}
		slog.Warn("ignoring stored hint mode", "tag", "settings", "value", raw)
	}
	if raw, ok := s.read(ctx, keyLegacyHints); ok {
		if legacy, err := strconv.ParseBool(raw); err == nil {
			m := HintOnlyIfStarts
			if legacy {
				m = HintAlways
			}
			s.migrateLegacyHints(ctx, m)
			return m
		}
	}
	return HintOnlyIfStarts
}

// migrateLegacyHints stores m under the current key and drops the legacy one.
// The legacy key is kept if the new value could not be written.
func (s *Store) migrateLegacyHints(ctx context.Context, m HintMode) {
	if err := s.kv.Set(ctx, keyHintMode, string(m)); err != nil {
		slog.Warn("hint mode migration not saved", "tag", "settings", "err", err)
		return
	}
	if err := s.kv.Delete(ctx, keyLegacyHints); err != nil {
		slog.Warn("legacy hint flag not removed", "tag", "settings", "err", err)
		return
	}
	slog.Info("migrated legacy hint setting", "tag", "settings", "hintMode", m)
}

func (s *Store) write(key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := s.kv.Set(ctx, key, value); err != nil {
		slog.Error("settings write failed", "tag", "settings", "key", key, "err", err)
	}
}

// Current returns a copy of the current settings.
func (s *Store) Current() GameSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return GameSettings{
		SelectedDifficulties: copySet(s.cur.SelectedDifficulties),
		SelectedCategoryIDs:  copySet(s.cur.SelectedCategoryIDs),
		HintMode:             s.cur.HintMode,
		SoundEnabled:         s.cur.SoundEnabled,
		HapticsEnabled:       s.cur.HapticsEnabled,
	}
}

// InitializeCategoriesIfNeeded selects every category when no selection has
// ever been stored. Call once the corpus is known.
func (s *Store) InitializeCategoriesIfNeeded(allIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cur.SelectedCategoryIDs) > 0 || s.categoriesStored {
		return
	}
	s.setCategoriesLocked(toSet(allIDs))
}

// SetHintMode stores m. Unknown modes are rejected.
func (s *Store) SetHintMode(m HintMode) error {
	if _, ok := ParseHintMode(string(m)); !ok {
		return fmt.Errorf("unknown hint mode %q", m)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.HintMode = m
	s.write(keyHintMode, string(m))
	return nil
}

// SetSoundEnabled stores the sound flag.
func (s *Store) SetSoundEnabled(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.SoundEnabled = on
	s.write(keySound, strconv.FormatBool(on))
}

// SetHapticsEnabled stores the haptics flag.
func (s *Store) SetHapticsEnabled(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.HapticsEnabled = on
	s.write(keyHaptics, strconv.FormatBool(on))
}

// ToggleSound flips the sound flag and returns the new value.
func (s *Store) ToggleSound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.SoundEnabled = !s.cur.SoundEnabled
	s.write(keySound, strconv.FormatBool(s.cur.SoundEnabled))
	return s.cur.SoundEnabled
}

// ToggleHaptics flips the haptics flag and returns the new value.
func (s *Store) ToggleHaptics() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.HapticsEnabled = !s.cur.HapticsEnabled
	s.write(keyHaptics, strconv.FormatBool(s.cur.HapticsEnabled))
	return s.cur.HapticsEnabled
}

// ToggleDifficulty adds or removes d from the selection. An empty selection is
// allowed here; it only blocks starting a game.
func (s *Store) ToggleDifficulty(d words.Difficulty) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := copySet(s.cur.SelectedDifficulties)
	if next[d] {
		delete(next, d)
	} else {
		next[d] = true
	}
	s.setDifficultiesLocked(next)
}

// ToggleCategory adds or removes id from the selection.
func (s *Store) ToggleCategory(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := copySet(s.cur.SelectedCategoryIDs)
	if next[id] {
		delete(next, id)
	} else {
		next[id] = true
	}
	s.setCategoriesLocked(next)
}

// SetSelectedDifficulties replaces the difficulty selection with ds.
func (s *Store) SetSelectedDifficulties(ds []words.Difficulty) {
	set := make(map[words.Difficulty]bool, len(ds))
	for _, d := range ds {
		set[d] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setDifficultiesLocked(set)
}

// SetSelectedCategoryIDs replaces the category selection with ids.
func (s *Store) SetSelectedCategoryIDs(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCategoriesLocked(toSet(ids))
}

// SelectAllDifficulties selects every difficulty.
func (s *Store) SelectAllDifficulties() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setDifficultiesLocked(allDifficulties())
}

// SelectAllCategories selects every id in allIDs.
func (s *Store) SelectAllCategories(allIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCategoriesLocked(toSet(allIDs))
}

// HasDifficultySelected reports whether at least one difficulty is selected.
func (s *Store) HasDifficultySelected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cur.SelectedDifficulties) > 0
}

// HasCategorySelected reports whether at least one category is selected.
func (s *Store) HasCategorySelected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cur.SelectedCategoryIDs) > 0
}

// AllDifficultiesSelected reports whether every difficulty is selected.
func (s *Store) AllDifficultiesSelected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cur.SelectedDifficulties) == len(words.AllDifficulties())
}

// AllCategoriesSelected reports whether total categories are selected.
func (s *Store) AllCategoriesSelected(total int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cur.SelectedCategoryIDs) == total
}

func (s *Store) setDifficultiesLocked(set map[words.Difficulty]bool) {
	s.cur.SelectedDifficulties = set
	raw := make([]string, 0, len(set))
	for _, d := range words.AllDifficulties() {
		if set[d] {
			raw = append(raw, string(d))
		}
	}
	data, _ := json.Marshal(raw)
	s.write(keyDifficulties, string(data))
}

func (s *Store) setCategoriesLocked(set map[string]bool) {
	s.cur.SelectedCategoryIDs = set
	s.categoriesStored = true
	data, _ := json.Marshal(sortedKeys(set))
	s.write(keyCategoryIDs, string(data))
}

func decodeStrings(raw string) ([]string, error) {
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeDifficulties drops names it does not recognise.
func decodeDifficulties(raw string) (map[words.Difficulty]bool, error) {
	names, err := decodeStrings(raw)
	if err != nil {
		return nil, err
	}
	set := make(map[words.Difficulty]bool, len(names))
	for _, n := range names {
		if d, ok := words.ParseDifficulty(n); ok {
			set[d] = true
		}
	}
	return set, nil
}

func allDifficulties() map[words.Difficulty]bool {
	set := make(map[words.Difficulty]bool)
	for _, d := range words.AllDifficulties() {
		set[d] = true
	}
	return set
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func copySet[K comparable](in map[K]bool) map[K]bool {
	out := make(map[K]bool, len(in))
	for k, v := range in {
		if v {
			out[k] = true
		}
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k, v := range set {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
