package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Player is the lifetime record for one account. ProviderUID ties it to the
// external authentication provider; ActiveSessionAuthTime is the issue-time
// of the last accepted credential and backs the single-active-session policy
// (nil until the first arbitrated login).
type Player struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProviderUID string    `gorm:"size:128;uniqueIndex;not null;column:provider_uid" json:"-"`
	Email       string    `gorm:"size:255;uniqueIndex;not null;column:email" json:"email"`
	DisplayName *string   `gorm:"size:32;uniqueIndex;column:display_name" json:"display_name"`

	ActiveSessionAuthTime *int64 `gorm:"column:active_session_auth_time" json:"-"`

	ProfilePicture   *string        `gorm:"size:128;column:profile_picture" json:"profile_picture"`
	CosmeticEquipped string         `gorm:"size:64;default:skin_default;column:cosmetic_equipped" json:"cosmetic_equipped"`
	CosmeticUnlocked datatypes.JSON `gorm:"column:cosmetic_unlocked" json:"cosmetic_unlocked"`

	HeroPassLevel         int            `gorm:"default:0;column:hero_pass_level" json:"hero_pass_level"`
	HeroPassExp           int            `gorm:"default:0;column:hero_pass_exp" json:"hero_pass_exp"`
	HeroPassTiersUnlocked datatypes.JSON `gorm:"column:hero_pass_tiers_unlocked" json:"hero_pass_tiers_unlocked"`
	AchievementsUnlocked  datatypes.JSON `gorm:"column:achievements_unlocked" json:"achievements_unlocked"`
	PowerpediaUnlocked    datatypes.JSON `gorm:"column:powerpedia_unlocked" json:"powerpedia_unlocked"`
	TutorialsRecorded     datatypes.JSON `gorm:"column:tutorials_recorded" json:"tutorials_recorded"`
	RecordedItems         datatypes.JSON `gorm:"column:recorded_items" json:"recorded_items"`

	CurrencyNotes          int `gorm:"default:0;column:currency_notes" json:"currency_notes"`
	TotalAdventuresCleared int `gorm:"default:0;column:total_adventures_cleared" json:"total_adventures_cleared"`
	TotalParryCounts       int `gorm:"default:0;column:total_parry_counts" json:"total_parry_counts"`
	TotalEnemiesDefeated   int `gorm:"default:0;column:total_enemies_defeated" json:"total_enemies_defeated"`
	TotalDamageDealt       int `gorm:"default:0;column:total_damage_dealt" json:"total_damage_dealt"`
	TotalDamageReceived    int `gorm:"default:0;column:total_damage_received" json:"total_damage_received"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Player) TableName() string { return "players" }
