package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmhodges/clock"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"famhealth-backend/models"
)

// GormStore keeps reminders in Postgres.
type GormStore struct {
	db    *gorm.DB
	clk   clock.Clock
	grace time.Duration
}

func NewGormStore(db *gorm.DB, clk clock.Clock, grace time.Duration) *GormStore {
	return &GormStore{db: db, clk: clk, grace: grace}
}

func (s *GormStore) Create(ctx context.Context, r *models.Reminder) error {
	if err := checkSchedule(s.clk.Now(), r.ScheduledAt, s.grace); err != nil {
		return err
	}
	r.Status = models.StatusPending
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

func (s *GormStore) ByID(ctx context.Context, id uuid.UUID) (models.Reminder, error) {
	var r models.Reminder
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Reminder{}, models.ErrNotFound
		}
		return models.Reminder{}, fmt.Errorf("failed to get reminder: %w", err)
	}
	return r, nil
}

func (s *GormStore) ByMember(ctx context.Context, memberID uuid.UUID) ([]models.Reminder, error) {
	return s.DueInRange(ctx, RangeQuery{MemberID: &memberID})
}

func (s *GormStore) DueInRange(ctx context.Context, q RangeQuery) ([]models.Reminder, error) {
	tx := s.db.WithContext(ctx).Model(&models.Reminder{})
	if q.MemberID != nil {
		tx = tx.Where("member_id = ?", *q.MemberID)
	}
	if !q.Start.IsZero() {
		tx = tx.Where("scheduled_at >= ?", q.Start)
	}
	if !q.End.IsZero() {
		tx = tx.Where("scheduled_at < ?", q.End)
	}
	if len(q.Statuses) > 0 {
		tx = tx.Where("status IN ?", q.Statuses)
	}

	var reminders []models.Reminder
	if err := tx.Order("scheduled_at ASC").Order("id ASC").Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	// Postgres orders uuids bytewise; re-sort so ties match SortBySchedule.
	SortBySchedule(reminders)
	return reminders, nil
}

// Update locks the row, applies the patch and writes it back guarded by the
// version it read.
func (s *GormStore) Update(ctx context.Context, id uuid.UUID, patch Patch) (models.Reminder, error) {
	var updated models.Reminder

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Reminder
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock reminder: %w", err)
		}

		next := current
		if err := patch.apply(&next); err != nil {
			return err
		}
		next.UpdatedAt = s.clk.Now()

		res := tx.Model(&models.Reminder{}).
			Where("id = ? AND version = ?", id, current.Version).
			Updates(map[string]interface{}{
				"status":                   next.Status,
				"scheduled_at":             next.ScheduledAt,
				"last_dispatch_attempt_at": next.LastDispatchAttemptAt,
				"dispatch_attempts":        next.DispatchAttempts,
				"version":                  next.Version,
				"updated_at":               next.UpdatedAt,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update reminder: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return models.ErrConflict
		}

		updated = next
		return nil
	})
	if err != nil {
		return models.Reminder{}, err
	}
	return updated, nil
}

func (s *GormStore) LogAttempt(ctx context.Context, entry models.DispatchLog) error {
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to log dispatch attempt: %w", err)
	}
	return nil
}
