package auth

import (
	"context"
	"errors"
	"time"

	"github.com/franciscosanchezn/gin-chat-auth/internal/models"
	"gorm.io/gorm"
)

// DeviceStore persists device authorization requests. Every transition out of
// pending is a conditional update so concurrent callers cannot both win.
type DeviceStore interface {
	// Create inserts a new request, failing with ErrUserCodeTaken when a live
	// request already holds the same user code
	Create(ctx context.Context, req *models.DeviceAuthorization, now time.Time) error
	GetByDeviceCode(ctx context.Context, deviceCode string) (*models.DeviceAuthorization, error)
	GetByUserCode(ctx context.Context, userCode string) (*models.DeviceAuthorization, error)
	// Resolve moves a live pending request to approved or denied
	Resolve(ctx context.Context, userCode string, status models.DeviceStatus, userID uint, now time.Time) (*models.DeviceAuthorization, error)
	// Expire marks a pending request whose lifetime has elapsed
	Expire(ctx context.Context, deviceCode string, now time.Time) error
	// RecordPoll stamps a poll and reports whether it came too early, in
	// which case the interval has been widened by step
	RecordPoll(ctx context.Context, req *models.DeviceAuthorization, now time.Time, step time.Duration) (bool, error)
	// Consume claims an approved request for token issuance exactly once
	Consume(ctx context.Context, deviceCode string, now time.Time) error
	// Release undoes a Consume made at consumedAt whose token was never minted
	Release(ctx context.Context, deviceCode string, consumedAt time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type GormDeviceStore struct {
	db *gorm.DB
}

func NewGormDeviceStore(db *gorm.DB) *GormDeviceStore {
	return &GormDeviceStore{db: db}
}

func (s *GormDeviceStore) Create(ctx context.Context, req *models.DeviceAuthorization, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// An expired request gives up its user code only after its token was
		// collected; until then its device must keep hearing expired_token
		if err := tx.Where("user_code = ? AND expires_at <= ? AND consumed_at IS NOT NULL", req.UserCode, now).
			Delete(&models.DeviceAuthorization{}).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.DeviceAuthorization{}).
			Where("user_code = ?", req.UserCode).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUserCodeTaken
		}

		if err := tx.Create(req).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUserCodeTaken
			}
			return err
		}
		return nil
	})
}

func (s *GormDeviceStore) GetByDeviceCode(ctx context.Context, deviceCode string) (*models.DeviceAuthorization, error) {
	var req models.DeviceAuthorization
	if err := s.db.WithContext(ctx).Where("device_code = ?", deviceCode).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (s *GormDeviceStore) GetByUserCode(ctx context.Context, userCode string) (*models.DeviceAuthorization, error) {
	var req models.DeviceAuthorization
	if err := s.db.WithContext(ctx).Where("user_code = ?", userCode).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (s *GormDeviceStore) Resolve(ctx context.Context, userCode string, status models.DeviceStatus, userID uint, now time.Time) (*models.DeviceAuthorization, error) {
	updates := map[string]interface{}{
		"status":      status,
		"resolved_at": now,
	}
	if status == models.DeviceStatusApproved {
		updates["user_id"] = userID
	}

	result := s.db.WithContext(ctx).Model(&models.DeviceAuthorization{}).
		Where("user_code = ? AND status = ? AND expires_at > ?", userCode, models.DeviceStatusPending, now).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}

	req, err := s.GetByUserCode(ctx, userCode)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 1 {
		return req, nil
	}

	// Lost the conditional update: tell "gone" apart from "someone decided first"
	if req.IsExpired(now) {
		return nil, ErrNotFound
	}
	return req, ErrAlreadyResolved
}

func (s *GormDeviceStore) Expire(ctx context.Context, deviceCode string, now time.Time) error {
	return s.db.WithContext(ctx).Model(&models.DeviceAuthorization{}).
		Where("device_code = ? AND status = ? AND expires_at <= ?", deviceCode, models.DeviceStatusPending, now).
		Update("status", models.DeviceStatusExpired).Error
}

func (s *GormDeviceStore) RecordPoll(ctx context.Context, req *models.DeviceAuthorization, now time.Time, step time.Duration) (bool, error) {
	tooEarly := req.LastPolledAt != nil && now.Sub(*req.LastPolledAt) < req.IntervalDuration()

	updates := map[string]interface{}{"last_polled_at": now}
	if tooEarly {
		updates["poll_interval"] = gorm.Expr("poll_interval + ?", int(step/time.Second))
	}

	query := s.db.WithContext(ctx).Model(&models.DeviceAuthorization{}).
		Where("device_code = ?", req.DeviceCode)
	if req.LastPolledAt == nil {
		query = query.Where("last_polled_at IS NULL")
	} else {
		query = query.Where("last_polled_at = ?", *req.LastPolledAt)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		// Another poll for the same device code landed in between
		return true, nil
	}
	return tooEarly, nil
}

func (s *GormDeviceStore) Consume(ctx context.Context, deviceCode string, now time.Time) error {
	result := s.db.WithContext(ctx).Model(&models.DeviceAuthorization{}).
		Where("device_code = ? AND status = ? AND consumed_at IS NULL", deviceCode, models.DeviceStatusApproved).
		Update("consumed_at", now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyConsumed
	}
	return nil
}

func (s *GormDeviceStore) Release(ctx context.Context, deviceCode string, consumedAt time.Time) error {
	return s.db.WithContext(ctx).Model(&models.DeviceAuthorization{}).
		Where("device_code = ? AND consumed_at = ?", deviceCode, consumedAt).
		Update("consumed_at", nil).Error
}

func (s *GormDeviceStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.DeviceAuthorization{})
	return result.RowsAffected, result.Error
}
