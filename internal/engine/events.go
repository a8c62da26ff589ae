package engine

// EventType names the outbound events the engine emits for the UI,
// notification and social layers.
type EventType string

const (
	EventPlayerJoined        EventType = "player_joined"
	EventPlayerLeft          EventType = "player_left"
	EventGameStarted         EventType = "game_started"
	EventTagOccurred         EventType = "tag_occurred"
	EventItReassigned        EventType = "it_reassigned"
	EventGamePaused          EventType = "game_paused"
	EventGameResumed         EventType = "game_resumed"
	EventGameEnded           EventType = "game_ended"
	EventAchievementUnlocked EventType = "achievement_unlocked"
)

// Event is the payload published to game subscribers. Fields are
// populated per type; zero values are omitted on the wire.
type Event struct {
	Type       EventType `json:"type"`
	GameID     string    `json:"gameId"`
	PlayerID   string    `json:"playerId,omitempty"`
	PlayerName string    `json:"playerName,omitempty"`

	// tag_occurred / it_reassigned
	TaggerID  string `json:"taggerId,omitempty"`
	TaggedID  string `json:"taggedId,omitempty"`
	NewItID   string `json:"newItId,omitempty"`
	TagTimeMs *int64 `json:"tagTimeMs,omitempty"`

	// game_ended
	WinnerID    string           `json:"winnerId,omitempty"`
	SurvivalsMs map[string]int64 `json:"survivalsMs,omitempty"`

	// achievement_unlocked
	AchievementID string `json:"achievementId,omitempty"`
}
