package session

// IntentType names a user intent. Values double as the ws message types.
type IntentType string

const (
	// IntentSync applies nothing and returns the current snapshot.
	IntentSync IntentType = "sync"

	IntentStartNewGame        IntentType = "start_new_game"
	IntentAddPlayer           IntentType = "add_player"
	IntentRemovePlayer        IntentType = "remove_player"
	IntentUpdatePlayerName    IntentType = "update_player_name"
	IntentSetImposterCount    IntentType = "set_imposter_count"
	IntentProceedToSettings   IntentType = "proceed_to_settings"
	IntentGoBackToPlayerSetup IntentType = "go_back_to_player_setup"
	IntentBeginRoleReveal     IntentType = "begin_role_reveal"
	IntentPlayerReady         IntentType = "player_ready"
	IntentFlipCard            IntentType = "flip_card"
	IntentMoveToNextPlayer    IntentType = "move_to_next_player"
	IntentEndGame             IntentType = "end_game"
	IntentRevealImposters     IntentType = "reveal_imposters"
	IntentRevealWord          IntentType = "reveal_word"
	IntentPlayAgain           IntentType = "play_again"
	IntentReturnHome          IntentType = "return_home"

	// Settings intents. They are valid in every phase.
	IntentToggleSound           IntentType = "toggle_sound"
	IntentToggleHaptics         IntentType = "toggle_haptics"
	IntentToggleDifficulty      IntentType = "toggle_difficulty"
	IntentToggleCategory        IntentType = "toggle_category"
	IntentSetHintMode           IntentType = "set_hint_mode"
	IntentSelectAllDifficulties IntentType = "select_all_difficulties"
	IntentSelectAllCategories   IntentType = "select_all_categories"
)

// Intent is one user action addressed to a Room. Only the fields the type
// needs are read: Index for remove/update, Name for update, Count for the
// imposter count, Value for difficulty, category ID or hint mode.
type Intent struct {
	Type  IntentType
	Index int
	Name  string
	Count int
	Value string
}
