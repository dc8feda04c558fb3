package domain

import "github.com/google/uuid"

// NeutralPKnow is the canonical neutral prior (0.5) in stored form. Both
// mastery scopes seed from it the first time a KC is encountered.
const NeutralPKnow = 50

// PlayerKCMastery is the lifetime mastery estimate for one player on one
// knowledge component. Created lazily on first submission, never deleted.
type PlayerKCMastery struct {
	PlayerID uuid.UUID `gorm:"type:uuid;primaryKey;column:player_id" json:"player_id"`
	KCID     int       `gorm:"primaryKey;column:kc_id" json:"kc_id"`

	PKnow     int `gorm:"default:50;column:p_know" json:"p_know"`
	Correct   int `gorm:"default:0" json:"correct"`
	Incorrect int `gorm:"default:0" json:"incorrect"`

	BestSentence      *string `gorm:"size:512;column:best_sentence" json:"best_sentence"`
	BestSentencePower *int    `gorm:"column:best_sentence_power" json:"best_sentence_power"`
}

func (PlayerKCMastery) TableName() string { return "player_kc_mastery" }

// AdventureKCStat mirrors PlayerKCMastery scoped to a single run. Seeded at
// the neutral prior independent of the player's lifetime estimate; removed
// only by cascade when its adventure is deleted.
type AdventureKCStat struct {
	AdventureID uuid.UUID `gorm:"type:uuid;primaryKey;column:adventure_id" json:"adventure_id"`
	KCID        int       `gorm:"primaryKey;column:kc_id" json:"kc_id"`

	PKnow     int `gorm:"default:50;column:p_know" json:"p_know"`
	Correct   int `gorm:"default:0" json:"correct"`
	Incorrect int `gorm:"default:0" json:"incorrect"`

	BestSentence      *string `gorm:"size:512;column:best_sentence" json:"best_sentence"`
	BestSentencePower *int    `gorm:"column:best_sentence_power" json:"best_sentence_power"`
}

func (AdventureKCStat) TableName() string { return "adventure_kc_stats" }
