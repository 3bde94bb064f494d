package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"famhealth-backend/models"
)

// Directory is the read-only view of households the reminder core needs.
type Directory interface {
	MemberExists(ctx context.Context, memberID uuid.UUID) (bool, error)
	ResolveDestination(ctx context.Context, memberID uuid.UUID) (models.Destination, error)
	// Location returns the zone reminders of this member are judged in.
	Location(ctx context.Context, memberID uuid.UUID) (*time.Location, error)
}

// GormDirectory reads members and families from Postgres.
type GormDirectory struct {
	db         *gorm.DB
	defaultLoc *time.Location
}

func NewGormDirectory(db *gorm.DB, defaultLoc *time.Location) *GormDirectory {
	if defaultLoc == nil {
		defaultLoc = time.Local
	}
	return &GormDirectory{db: db, defaultLoc: defaultLoc}
}

func (d *GormDirectory) member(ctx context.Context, memberID uuid.UUID) (models.Member, error) {
	var m models.Member
	err := d.db.WithContext(ctx).Preload("Family").First(&m, "id = ?", memberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return m, models.ErrMemberNotFound
	}
	if err != nil {
		return m, fmt.Errorf("failed to load member: %w", err)
	}
	return m, nil
}

func (d *GormDirectory) MemberExists(ctx context.Context, memberID uuid.UUID) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&models.Member{}).Where("id = ?", memberID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check member: %w", err)
	}
	return count > 0, nil
}

func (d *GormDirectory) ResolveDestination(ctx context.Context, memberID uuid.UUID) (models.Destination, error) {
	m, err := d.member(ctx, memberID)
	if err != nil {
		return models.Destination{}, err
	}
	return destinationFor(m)
}

func (d *GormDirectory) Location(ctx context.Context, memberID uuid.UUID) (*time.Location, error) {
	m, err := d.member(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return zoneFor(m, d.defaultLoc), nil
}

// MemoryDirectory is a Directory over an in-process set of families.
type MemoryDirectory struct {
	mu         sync.RWMutex
	defaultLoc *time.Location
	families   map[uuid.UUID]models.Family
	members    map[uuid.UUID]models.Member
}

func NewMemoryDirectory(defaultLoc *time.Location) *MemoryDirectory {
	if defaultLoc == nil {
		defaultLoc = time.Local
	}
	return &MemoryDirectory{
		defaultLoc: defaultLoc,
		families:   make(map[uuid.UUID]models.Family),
		members:    make(map[uuid.UUID]models.Member),
	}
}

// Put registers a family and its members, assigning ids where missing.
func (d *MemoryDirectory) Put(f models.Family) models.Family {
	d.mu.Lock()
	defer d.mu.Unlock()

	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.Channel == "" {
		f.Channel = models.ChannelEmail
	}
	members := f.Members
	f.Members = nil
	for i := range members {
		if members[i].ID == uuid.Nil {
			members[i].ID = uuid.New()
		}
		members[i].FamilyID = f.ID
	}
	d.families[f.ID] = f
	for _, m := range members {
		d.members[m.ID] = m
	}
	f.Members = members
	return f
}

func (d *MemoryDirectory) lookup(memberID uuid.UUID) (models.Member, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	m, ok := d.members[memberID]
	if !ok {
		return m, models.ErrMemberNotFound
	}
	f := d.families[m.FamilyID]
	m.Family = &f
	return m, nil
}

func (d *MemoryDirectory) MemberExists(ctx context.Context, memberID uuid.UUID) (bool, error) {
	_, err := d.lookup(memberID)
	return err == nil, nil
}

func (d *MemoryDirectory) ResolveDestination(ctx context.Context, memberID uuid.UUID) (models.Destination, error) {
	m, err := d.lookup(memberID)
	if err != nil {
		return models.Destination{}, err
	}
	return destinationFor(m)
}

func (d *MemoryDirectory) Location(ctx context.Context, memberID uuid.UUID) (*time.Location, error) {
	m, err := d.lookup(memberID)
	if err != nil {
		return nil, err
	}
	return zoneFor(m, d.defaultLoc), nil
}

func destinationFor(m models.Member) (models.Destination, error) {
	if m.Family == nil {
		return models.Destination{}, fmt.Errorf("member %s has no household", m.ID)
	}
	dest := models.Destination{MemberName: m.Name, Channel: m.Family.Channel}
	switch m.Family.Channel {
	case models.ChannelSMS, models.ChannelWhatsApp:
		dest.Address = m.Family.Phone
	default:
		dest.Channel = models.ChannelEmail
		dest.Address = m.Family.Email
	}
	if dest.Address == "" {
		return models.Destination{}, fmt.Errorf("household %s has no %s destination", m.Family.ID, dest.Channel)
	}
	return dest, nil
}

// zoneFor picks the member zone, then the household zone, then fallback.
// Unknown zone names fall through to the next candidate.
func zoneFor(m models.Member, fallback *time.Location) *time.Location {
	candidates := []string{m.Timezone}
	if m.Family != nil {
		candidates = append(candidates, m.Family.Timezone)
	}
	for _, name := range candidates {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return fallback
}
