package game

// Phase is the current stage of play.
type Phase int

const (
	Home Phase = iota
	PlayerSetup
	GameSettings
	RoleReveal
	Playing
	EndGame
)

// String returns the protocol string for a Phase.
func (p Phase) String() string {
	switch p {
	case Home:
		return "home"
	case PlayerSetup:
		return "playerSetup"
	case GameSettings:
		return "gameSettings"
	case RoleReveal:
		return "roleReveal"
	case Playing:
		return "playing"
	case EndGame:
		return "endGame"
	default:
		return "unknown"
	}
}
