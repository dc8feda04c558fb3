package domain

import "github.com/google/uuid"

// AdventureSummary is the immutable history record written exactly once when
// an adventure finishes. List fields are stored comma-joined, matching the
// client's save format.
type AdventureSummary struct {
	AdventureID uuid.UUID `gorm:"type:uuid;primaryKey;column:adventure_id" json:"adventure_id"`

	Status              string `gorm:"size:16" json:"status"`
	DayInEpochTime      int64  `gorm:"column:day_in_epoch_time" json:"day_in_epoch_time"`
	HighestFloorCleared int    `gorm:"column:highest_floor_cleared" json:"highest_floor_cleared"`
	TimeSpentSeconds    int    `gorm:"column:time_spent_seconds" json:"time_spent_seconds"`

	ItemsCollectedJSON   *string `gorm:"size:2048;column:items_collected_json" json:"items_collected_json"`
	NodeTypesClearedJSON *string `gorm:"size:512;column:node_types_cleared_json" json:"node_types_cleared_json"`

	Level           int `gorm:"column:level" json:"level"`
	EnemyLevel      int `gorm:"column:enemy_level" json:"enemy_level"`
	EnemiesDefeated int `gorm:"column:enemies_defeated" json:"enemies_defeated"`

	BestKCID     *int    `gorm:"column:best_kc_id" json:"best_kc_id"`
	WorstKCID    *int    `gorm:"column:worst_kc_id" json:"worst_kc_id"`
	BestSentence *string `gorm:"size:512;column:best_sentence" json:"best_sentence"`

	TotalDamageDealt    int `gorm:"default:0;column:total_damage_dealt" json:"total_damage_dealt"`
	TotalDamageReceived int `gorm:"default:0;column:total_damage_received" json:"total_damage_received"`
}

func (AdventureSummary) TableName() string { return "adventure_summary" }
