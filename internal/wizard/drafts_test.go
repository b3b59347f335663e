package wizard

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"project-verification/portal-backend/internal/verification"
)

func draftRepositories(t *testing.T) map[string]DraftRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "drafts.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	gormRepo, err := NewGormDraftRepository(db)
	require.NoError(t, err)

	return map[string]DraftRepository{
		"gorm":   gormRepo,
		"memory": NewMemoryDraftRepository(),
	}
}

func TestDraftRepositories(t *testing.T) {
	for name, repo := range draftRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := repo.Get(ctx, "my-project", verification.StepProjectRegistry)
			assert.ErrorIs(t, err, ErrDraftNotFound)

			require.NoError(t, repo.Save(ctx, "my-project", verification.StepProjectRegistry, json.RawMessage(`{"organizationName":"Acme"}`)))
			require.NoError(t, repo.Save(ctx, "my-project", verification.StepProjectRegistry, json.RawMessage(`{"organizationName":"Acme Ltd"}`)))
			require.NoError(t, repo.Save(ctx, "my-project", verification.StepMilestones, json.RawMessage(`{"mission":"grow"}`)))
			require.NoError(t, repo.Save(ctx, "other", verification.StepMilestones, json.RawMessage(`{}`)))

			d, err := repo.Get(ctx, "my-project", verification.StepProjectRegistry)
			require.NoError(t, err)
			assert.JSONEq(t, `{"organizationName":"Acme Ltd"}`, string(d.Payload))
			assert.Equal(t, "my-project", d.Slug)
			assert.NotEmpty(t, d.ID)

			require.NoError(t, repo.Delete(ctx, "my-project", verification.StepProjectRegistry))
			_, err = repo.Get(ctx, "my-project", verification.StepProjectRegistry)
			assert.ErrorIs(t, err, ErrDraftNotFound)

			require.NoError(t, repo.DeleteSession(ctx, "my-project"))
			_, err = repo.Get(ctx, "my-project", verification.StepMilestones)
			assert.ErrorIs(t, err, ErrDraftNotFound)

			_, err = repo.Get(ctx, "other", verification.StepMilestones)
			assert.NoError(t, err)
		})
	}
}
