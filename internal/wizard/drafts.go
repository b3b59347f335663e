package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"project-verification/portal-backend/internal/verification"
)

// ErrDraftNotFound is returned when no draft exists for a session step
var ErrDraftNotFound = errors.New("draft not found")

// Draft is a form submission that did not reach the server
type Draft struct {
	ID        uuid.UUID      `json:"id" gorm:"primaryKey"`
	Slug      string         `json:"slug" gorm:"not null;uniqueIndex:idx_drafts_slug_step"`
	Step      string         `json:"step" gorm:"not null;uniqueIndex:idx_drafts_slug_step"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName overrides the default table name
func (Draft) TableName() string { return "verification_drafts" }

// BeforeCreate hook for UUID generation
func (d *Draft) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// DraftRepository stores unsent step forms so edits survive a reload
type DraftRepository interface {
	Save(ctx context.Context, slug string, step verification.StepName, payload json.RawMessage) error
	Get(ctx context.Context, slug string, step verification.StepName) (*Draft, error)
	Delete(ctx context.Context, slug string, step verification.StepName) error
	DeleteSession(ctx context.Context, slug string) error
}

// GormDraftRepository keeps drafts in a SQL database
type GormDraftRepository struct {
	db *gorm.DB
}

// NewGormDraftRepository creates the repository and migrates its table
func NewGormDraftRepository(db *gorm.DB) (*GormDraftRepository, error) {
	if err := db.AutoMigrate(&Draft{}); err != nil {
		return nil, fmt.Errorf("failed to migrate drafts: %w", err)
	}
	return &GormDraftRepository{db: db}, nil
}

func (r *GormDraftRepository) Save(ctx context.Context, slug string, step verification.StepName, payload json.RawMessage) error {
	draft := &Draft{
		Slug:    slug,
		Step:    string(step),
		Payload: datatypes.JSON(payload),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}, {Name: "step"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(draft).Error
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

func (r *GormDraftRepository) Get(ctx context.Context, slug string, step verification.StepName) (*Draft, error) {
	var draft Draft
	err := r.db.WithContext(ctx).
		Where("slug = ? AND step = ?", slug, string(step)).
		First(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return &draft, nil
}

func (r *GormDraftRepository) Delete(ctx context.Context, slug string, step verification.StepName) error {
	err := r.db.WithContext(ctx).
		Where("slug = ? AND step = ?", slug, string(step)).
		Delete(&Draft{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

func (r *GormDraftRepository) DeleteSession(ctx context.Context, slug string) error {
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).Delete(&Draft{}).Error; err != nil {
		return fmt.Errorf("failed to delete drafts: %w", err)
	}
	return nil
}

// MemoryDraftRepository keeps drafts in process; used when no database is configured
type MemoryDraftRepository struct {
	mu     sync.RWMutex
	drafts map[string]*Draft
}

func NewMemoryDraftRepository() *MemoryDraftRepository {
	return &MemoryDraftRepository{drafts: make(map[string]*Draft)}
}

func draftKey(slug string, step verification.StepName) string {
	return slug + "\x00" + string(step)
}

func (r *MemoryDraftRepository) Save(_ context.Context, slug string, step verification.StepName, payload json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	key := draftKey(slug, step)
	if d, ok := r.drafts[key]; ok {
		d.Payload = append(datatypes.JSON(nil), payload...)
		d.UpdatedAt = now
		return nil
	}
	r.drafts[key] = &Draft{
		ID:        uuid.New(),
		Slug:      slug,
		Step:      string(step),
		Payload:   append(datatypes.JSON(nil), payload...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (r *MemoryDraftRepository) Get(_ context.Context, slug string, step verification.StepName) (*Draft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drafts[draftKey(slug, step)]
	if !ok {
		return nil, ErrDraftNotFound
	}
	cp := *d
	cp.Payload = append(datatypes.JSON(nil), d.Payload...)
	return &cp, nil
}

func (r *MemoryDraftRepository) Delete(_ context.Context, slug string, step verification.StepName) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, draftKey(slug, step))
	return nil
}

func (r *MemoryDraftRepository) DeleteSession(_ context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, d := range r.drafts {
		if d.Slug == slug {
			delete(r.drafts, key)
		}
	}
	return nil
}
