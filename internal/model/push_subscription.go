package model

import "time"

// PushSubscription holds a dashboard client's Web Push registration.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	P256DH    string    `gorm:"not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PushSubscription) TableName() string {
	return "push_subscriptions"
}
