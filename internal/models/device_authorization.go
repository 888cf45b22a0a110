package models

import (
	"time"
)

// DeviceStatus is the lifecycle state of a device authorization request.
// Only pending moves; every other state is terminal.
type DeviceStatus string

const (
	DeviceStatusPending  DeviceStatus = "pending"
	DeviceStatusApproved DeviceStatus = "approved"
	DeviceStatusDenied   DeviceStatus = "denied"
	DeviceStatusExpired  DeviceStatus = "expired"
)

func (s DeviceStatus) IsTerminal() bool {
	return s != DeviceStatusPending
}

// DeviceAuthorization is one RFC 8628 device authorization attempt
type DeviceAuthorization struct {
	DeviceCode   string       `gorm:"primaryKey;size:64"`
	UserCode     string       `gorm:"uniqueIndex;size:8;not null"`
	ClientID     string       `gorm:"not null;index"`
	Scope        string
	Status       DeviceStatus `gorm:"size:16;not null;default:'pending';index"`
	UserID       *uint        `gorm:"index"`              // set on approval
	PollInterval int          `gorm:"not null;default:5"` // seconds
	ExpiresAt    time.Time    `gorm:"not null;index"`
	LastPolledAt *time.Time
	ResolvedAt   *time.Time
	ConsumedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (DeviceAuthorization) TableName() string {
	return "device_authorizations"
}

// IsExpired reports whether the request is unusable at now, whatever its status
func (d *DeviceAuthorization) IsExpired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

func (d *DeviceAuthorization) IntervalDuration() time.Duration {
	return time.Duration(d.PollInterval) * time.Second
}
