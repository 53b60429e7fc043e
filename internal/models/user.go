package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type User struct {
	ID           string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name         string `gorm:"column:name;type:text" json:"name"`
	Email        string `gorm:"column:email;type:text;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"column:password_hash;type:text" json:"-"`

	Skills     pq.StringArray `gorm:"column:skills;type:text[]" json:"skills"`
	TargetRole string         `gorm:"column:target_role;type:text" json:"target_role"`

	// Last-used interview setup, replayed by clients to prefill the next session form.
	LastInterviewConfig datatypes.JSON `gorm:"column:last_interview_config;type:jsonb" json:"last_interview_config"`

	StreakCurrent   int        `gorm:"column:streak_current" json:"streak_current"`
	StreakLongest   int        `gorm:"column:streak_longest" json:"streak_longest"`
	LastInterviewAt *time.Time `gorm:"column:last_interview_at;type:timestamptz" json:"last_interview_at"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// Streak is the practice-streak view of a user record.
type Streak struct {
	Current         int        `json:"current"`
	Longest         int        `json:"longest"`
	LastInterviewAt *time.Time `json:"last_interview_at"`
}

func (u *User) Streak() Streak {
	return Streak{
		Current:         u.StreakCurrent,
		Longest:         u.StreakLongest,
		LastInterviewAt: u.LastInterviewAt,
	}
}
