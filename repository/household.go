package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"famhealth-backend/models"
)

// Households manages the families and members behind a Directory.
type Households interface {
	CreateFamily(ctx context.Context, f *models.Family) error
	Family(ctx context.Context, id uuid.UUID) (models.Family, error)
	AddMember(ctx context.Context, m *models.Member) error
	Members(ctx context.Context, familyID uuid.UUID) ([]models.Member, error)
}

func (d *GormDirectory) CreateFamily(ctx context.Context, f *models.Family) error {
	if err := d.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("failed to create family: %w", err)
	}
	return nil
}

func (d *GormDirectory) Family(ctx context.Context, id uuid.UUID) (models.Family, error) {
	var f models.Family
	err := d.db.WithContext(ctx).Preload("Members").First(&f, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return f, models.ErrNotFound
	}
	if err != nil {
		return f, fmt.Errorf("failed to load family: %w", err)
	}
	return f, nil
}

func (d *GormDirectory) AddMember(ctx context.Context, m *models.Member) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Family{}).Where("id = ?", m.FamilyID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check family: %w", err)
		}
		if count == 0 {
			return models.ErrNotFound
		}
		if err := tx.Create(m).Error; err != nil {
			return fmt.Errorf("failed to create member: %w", err)
		}
		return nil
	})
}

func (d *GormDirectory) Members(ctx context.Context, familyID uuid.UUID) ([]models.Member, error) {
	var members []models.Member
	if err := d.db.WithContext(ctx).Where("family_id = ?", familyID).Order("created_at").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

func (d *MemoryDirectory) CreateFamily(ctx context.Context, f *models.Family) error {
	*f = d.Put(*f)
	return nil
}

func (d *MemoryDirectory) Family(ctx context.Context, id uuid.UUID) (models.Family, error) {
	d.mu.RLock()
	f, ok := d.families[id]
	d.mu.RUnlock()
	if !ok {
		return models.Family{}, models.ErrNotFound
	}
	members, _ := d.Members(ctx, id)
	f.Members = members
	return f, nil
}

func (d *MemoryDirectory) AddMember(ctx context.Context, m *models.Member) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.families[m.FamilyID]; !ok {
		return models.ErrNotFound
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	d.members[m.ID] = *m
	return nil
}

func (d *MemoryDirectory) Members(ctx context.Context, familyID uuid.UUID) ([]models.Member, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	members := []models.Member{}
	for _, m := range d.members {
		if m.FamilyID == familyID {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Name != members[j].Name {
			return members[i].Name < members[j].Name
		}
		return members[i].ID.String() < members[j].ID.String()
	})
	return members, nil
}
