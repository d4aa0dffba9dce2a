package models

import "time"

// WaitlistEntry is one signup. Email is stored lower-cased and trimmed.
type WaitlistEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"type:text;not null;uniqueIndex:idx_waitlist_email" json:"email"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (WaitlistEntry) TableName() string {
	return "waitlist"
}
