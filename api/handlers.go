// Package api serves the small HTTP surface next to the WebSocket: the word
// catalogue, the persisted settings and a QR code of the server URL.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/skip2/go-qrcode"

	"imposter-server/config"
	"imposter-server/settings"
	"imposter-server/words"
)

const (
	defaultQRSize = 256
	minQRSize     = 128
	maxQRSize     = 1024
)

// Handler holds dependencies for API handlers.
type Handler struct {
	Config   *config.Config
	Corpus   *words.Corpus
	Settings *settings.Store
}

// NewHandler creates a new API handler with the given dependencies.
func NewHandler(cfg *config.Config, corpus *words.Corpus, store *settings.Store) *Handler {
	return &Handler{
		Config:   cfg,
		Corpus:   corpus,
		Settings: store,
	}
}

// Register mounts every endpoint on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/categories", h.Categories)
	mux.HandleFunc("/api/settings", h.SettingsEndpoint)
	mux.HandleFunc("/api/qr", h.QR)
}

// CORS sets CORS headers on the response. Call before writing body.
func CORS(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// DifficultyInfo describes one difficulty level.
type DifficultyInfo struct {
	ID          words.Difficulty `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
}

// CategoryInfo describes one category and how many words it holds per difficulty.
type CategoryInfo struct {
	ID         string                   `json:"id"`
	Name       string                   `json:"name"`
	Icon       string                   `json:"icon"`
	WordCounts map[words.Difficulty]int `json:"wordCounts"`
	TotalWords int                      `json:"totalWords"`
	Selected   bool                     `json:"selected"`
}

// CategoriesResponse is the JSON structure for /api/categories.
type CategoriesResponse struct {
	Difficulties []DifficultyInfo `json:"difficulties"`
	Categories   []CategoryInfo   `json:"categories"`
}

// Categories lists the corpus with per-difficulty word counts.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cur := h.Settings.Current()
	resp := CategoriesResponse{
		Difficulties: difficultyInfos(),
		Categories:   []CategoryInfo{},
	}
	for _, cat := range h.Corpus.Categories() {
		counts := make(map[words.Difficulty]int, len(cat.Words))
		for _, d := range words.AllDifficulties() {
			counts[d] = len(cat.WordsFor(d))
		}
		resp.Categories = append(resp.Categories, CategoryInfo{
			ID:         cat.ID,
			Name:       cat.Name,
			Icon:       cat.Icon,
			WordCounts: counts,
			TotalWords: len(cat.AllWords()),
			Selected:   cur.SelectedCategoryIDs[cat.ID],
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func difficultyInfos() []DifficultyInfo {
	var out []DifficultyInfo
	for _, d := range words.AllDifficulties() {
		out = append(out, DifficultyInfo{ID: d, Name: d.DisplayName(), Description: d.Description()})
	}
	return out
}

// HintModeInfo describes one hint mode.
type HintModeInfo struct {
	ID          settings.HintMode `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
}

// SettingsView is the JSON structure returned by /api/settings.
type SettingsView struct {
	SelectedDifficulties    []words.Difficulty `json:"selectedDifficulties"`
	SelectedCategoryIDs     []string           `json:"selectedCategoryIds"`
	HintMode                settings.HintMode  `json:"hintMode"`
	SoundEnabled            bool               `json:"soundEnabled"`
	HapticsEnabled          bool               `json:"hapticsEnabled"`
	AllDifficultiesSelected bool               `json:"allDifficultiesSelected"`
	AllCategoriesSelected   bool               `json:"allCategoriesSelected"`
	AvailableWords          int                `json:"availableWords"`
	HintModes               []HintModeInfo     `json:"hintModes"`
}

// SettingsUpdate is the body of PUT /api/settings. Absent fields are left alone.
type SettingsUpdate struct {
	SelectedDifficulties []string `json:"selectedDifficulties"`
	SelectedCategoryIDs  []string `json:"selectedCategoryIds"`
	HintMode             *string  `json:"hintMode"`
	SoundEnabled         *bool    `json:"soundEnabled"`
	HapticsEnabled       *bool    `json:"hapticsEnabled"`
}

// SettingsEndpoint serves GET and PUT /api/settings.
func (h *Handler) SettingsEndpoint(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.settingsView())
	case http.MethodPut:
		h.updateSettings(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var upd SettingsUpdate
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&upd); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	// Validate everything before touching the store.
	var diffs []words.Difficulty
	for _, raw := range upd.SelectedDifficulties {
		d, ok := words.ParseDifficulty(raw)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown difficulty %q", raw), http.StatusBadRequest)
			return
		}
		diffs = append(diffs, d)
	}
	for _, id := range upd.SelectedCategoryIDs {
		if _, ok := h.Corpus.Category(id); !ok {
			http.Error(w, fmt.Sprintf("unknown category %q", id), http.StatusBadRequest)
			return
		}
	}
	var mode settings.HintMode
	if upd.HintMode != nil {
		m, ok := settings.ParseHintMode(*upd.HintMode)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown hint mode %q", *upd.HintMode), http.StatusBadRequest)
			return
		}
		mode = m
	}

	if upd.SelectedDifficulties != nil {
		h.Settings.SetSelectedDifficulties(diffs)
	}
	if upd.SelectedCategoryIDs != nil {
		h.Settings.SetSelectedCategoryIDs(upd.SelectedCategoryIDs)
	}
	if upd.HintMode != nil {
		if err := h.Settings.SetHintMode(mode); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if upd.SoundEnabled != nil {
		h.Settings.SetSoundEnabled(*upd.SoundEnabled)
	}
	if upd.HapticsEnabled != nil {
		h.Settings.SetHapticsEnabled(*upd.HapticsEnabled)
	}
	slog.Debug("settings updated", "tag", "api")
	writeJSON(w, http.StatusOK, h.settingsView())
}

func (h *Handler) settingsView() SettingsView {
	cur := h.Settings.Current()
	view := SettingsView{
		SelectedDifficulties:    cur.Difficulties(),
		SelectedCategoryIDs:     cur.CategoryIDs(),
		HintMode:                cur.HintMode,
		SoundEnabled:            cur.SoundEnabled,
		HapticsEnabled:          cur.HapticsEnabled,
		AllDifficultiesSelected: h.Settings.AllDifficultiesSelected(),
		AllCategoriesSelected:   h.Settings.AllCategoriesSelected(len(h.Corpus.CategoryIDs())),
		HintModes:               hintModeInfos(),
	}
	if h.Settings.HasCategorySelected() && h.Settings.HasDifficultySelected() {
		view.AvailableWords = h.Corpus.TotalWordCount(cur.Filter())
	}
	if view.SelectedDifficulties == nil {
		view.SelectedDifficulties = []words.Difficulty{}
	}
	return view
}

func hintModeInfos() []HintModeInfo {
	modes := []settings.HintMode{settings.HintOff, settings.HintAlways, settings.HintOnlyIfStarts}
	out := make([]HintModeInfo, 0, len(modes))
	for _, m := range modes {
		out = append(out, HintModeInfo{ID: m, Name: m.DisplayName(), Description: m.Description()})
	}
	return out
}

// QR returns a PNG QR code of the public URL so another device can open the UI.
func (h *Handler) QR(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 {
		size = defaultQRSize
	}
	size = min(max(size, minQRSize), maxQRSize)

	png, err := qrcode.Encode(h.Config.BaseURL(), qrcode.Medium, size)
	if err != nil {
		slog.Error("encoding QR code", "tag", "api", "err", err)
		http.Error(w, "failed to encode QR code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(png); err != nil {
		slog.Debug("writing QR response", "tag", "api", "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "tag", "api", "err", err)
	}
}
