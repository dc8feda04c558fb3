package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Adventure lifecycle states. InProgress is the only non-terminal state; a
// partial unique index on (player_id) WHERE state = 'in_progress' enforces
// at most one active run per player (see data/db.EnsureGameIndexes).
const (
	AdventureInProgress = "in_progress"
	AdventureSuccess    = "success"
	AdventureFailed     = "failed"
)

type Adventure struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PlayerID uuid.UUID `gorm:"type:uuid;index;not null;column:player_id" json:"player_id"`

	Seed  string `gorm:"size:64;not null" json:"seed"`
	State string `gorm:"size:16;default:in_progress;index" json:"state"`

	CurrentNodeID  *string        `gorm:"size:64;column:current_node_id" json:"current_node_id"`
	CurrentNodeKC  *int           `gorm:"column:current_node_kc" json:"current_node_kc"`
	ClearedNodes   datatypes.JSON `gorm:"column:cleared_nodes" json:"cleared_nodes"`
	ItemsCollected datatypes.JSON `gorm:"column:items_collected" json:"items_collected"`
	NodeName       *string        `gorm:"size:64;column:node_name" json:"node_name"`
	CurrentFloor   int            `gorm:"default:1;column:current_floor" json:"current_floor"`

	Level                int `gorm:"default:1" json:"level"`
	AddWritingLevel      int `gorm:"default:0;column:add_writing_level" json:"add_writing_level"`
	AddDefenseLevel      int `gorm:"default:0;column:add_defense_level" json:"add_defense_level"`
	EnemyLevel           int `gorm:"default:1;column:enemy_level" json:"enemy_level"`
	AddEnemyWritingLevel int `gorm:"default:0;column:add_enemy_writing_level" json:"add_enemy_writing_level"`
	AddEnemyDefenseLevel int `gorm:"default:0;column:add_enemy_defense_level" json:"add_enemy_defense_level"`

	IsPractice bool `gorm:"default:false;column:is_practice" json:"is_practice"`

	EnemiesDefeated     int `gorm:"default:0;column:enemies_defeated" json:"enemies_defeated"`
	TotalDamageDealt    int `gorm:"default:0;column:total_damage_dealt" json:"total_damage_dealt"`
	TotalDamageReceived int `gorm:"default:0;column:total_damage_received" json:"total_damage_received"`
	RewardHeroPassExp   int `gorm:"default:0;column:reward_hero_pass_exp" json:"reward_hero_pass_exp"`
	RewardNotes         int `gorm:"default:0;column:reward_notes" json:"reward_notes"`

	NodeTypesCleared     datatypes.JSON `gorm:"column:node_types_cleared" json:"node_types_cleared"`
	CorrectSubmissions   int            `gorm:"default:0;column:correct_submissions" json:"correct_submissions"`
	IncorrectSubmissions int            `gorm:"default:0;column:incorrect_submissions" json:"incorrect_submissions"`

	BestSentence      *string `gorm:"size:512;column:best_sentence" json:"best_sentence"`
	BestSentencePower *int    `gorm:"column:best_sentence_power" json:"best_sentence_power"`
	BestKCID          *int    `gorm:"column:best_kc_id" json:"best_kc_id"`

	StartedAt  time.Time  `gorm:"not null;default:now();column:started_at" json:"started_at"`
	FinishedAt *time.Time `gorm:"column:finished_at" json:"finished_at"`
}

func (Adventure) TableName() string { return "adventures" }
