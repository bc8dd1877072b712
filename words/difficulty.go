package words

import "fmt"

// Difficulty is the word complexity level. Values are a closed set.
type Difficulty string

const (
	Kids   Difficulty = "kids"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// AllDifficulties returns every difficulty in display order.
func AllDifficulties() []Difficulty {
	return []Difficulty{Kids, Medium, Hard}
}

// ParseDifficulty returns the Difficulty for s, or false if s is not a known level.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch d := Difficulty(s); d {
	case Kids, Medium, Hard:
		return d, true
	default:
		return "", false
	}
}

// DisplayName returns the human-readable label for a difficulty.
func (d Difficulty) DisplayName() string {
	switch d {
	case Kids:
		return "Kids"
	case Medium:
		return "Medium"
	case Hard:
		return "Hard"
	default:
		return string(d)
	}
}

// Description returns a one-line explanation of the difficulty.
func (d Difficulty) Description() string {
	switch d {
	case Kids:
		return "Simple, everyday words"
	case Medium:
		return "More specific terms"
	case Hard:
		return "Obscure and challenging"
	default:
		return ""
	}
}

// UnmarshalText rejects unknown difficulty names.
func (d *Difficulty) UnmarshalText(text []byte) error {
	parsed, ok := ParseDifficulty(string(text))
	if !ok {
		return fmt.Errorf("unknown difficulty %q", text)
	}
	*d = parsed
	return nil
}
