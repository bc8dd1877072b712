package game

import (
	"imposter-server/gameerrors"
	"imposter-server/settings"
)

// assignRoles draws the secret word and picks the imposters. The word is drawn
// first so a failed draw leaves every player untouched.
func (e *Engine) assignRoles(cur settings.GameSettings) error {
	pick, ok := e.words.RandomWord(cur.Filter())
	if !ok {
		return gameerrors.ErrNoCandidateWords
	}

	s := e.session
	for i := range s.Players {
		s.Players[i].IsImposter = false
		s.Players[i].HasRevealedRole = false
	}

	// Second clamp at draw time; the roster-change clamp normally makes this a no-op.
	actual := min(s.ImposterCount, len(s.Players)-1)
	order := e.rng.Perm(len(s.Players))
	for _, idx := range order[:max(actual, 0)] {
		s.Players[idx].IsImposter = true
	}

	cat := pick.Category
	s.SelectedWord = pick.Word
	s.SelectedCategory = &cat
	return nil
}

// selectStartingPlayer prefers a non-imposter. With no non-imposters it falls
// back to anyone.
func (e *Engine) selectStartingPlayer() {
	s := e.session
	var candidates []int
	for i, p := range s.Players {
		if !p.IsImposter {
			candidates = append(candidates, i)
		}
	}
	switch {
	case len(candidates) > 0:
		s.StartingPlayerIndex = candidates[e.rng.Intn(len(candidates))]
	case len(s.Players) > 0:
		s.StartingPlayerIndex = e.rng.Intn(len(s.Players))
	default:
		s.StartingPlayerIndex = 0
	}
}

// HintVisible is the category-hint rule. Non-imposters never get a hint;
// imposters get one when the mode is always, or when the mode is
// onlyIfStarts and they open the discussion.
func HintVisible(mode settings.HintMode, isImposter, isStartingPlayer bool) bool {
	if !isImposter {
		return false
	}
	switch mode {
	case settings.HintAlways:
		return true
	case settings.HintOnlyIfStarts:
		return isStartingPlayer
	default:
		return false
	}
}
