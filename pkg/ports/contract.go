package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunProfileStoreContract runs a suite of tests to verify that a ProfileStore implementation
// adheres to the defined interface contract.
func RunProfileStoreContract(t *testing.T, store ProfileStore) {
	ctx := context.Background()
	profileID := "contract-test-profile-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		profile := domain.NewProfile(profileID, "Neuro Navigator")
		profile.Points = 150
		profile.Badges = []string{"b-001"}
		profile.CurrentProgress = &domain.Progress{
			ExerciseID: "ex-001",
			StepIndex:  2,
			StepID:     "s3",
			Timestamp:  time.Now().UTC().Truncate(time.Second),
		}

		err := store.Save(ctx, profile)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, profileID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, profile.Name, loaded.Name)
		assert.Equal(t, 150, loaded.Points)
		assert.Equal(t, []string{"b-001"}, loaded.Badges)
		require.NotNil(t, loaded.CurrentProgress)
		assert.Equal(t, 2, loaded.CurrentProgress.StepIndex)
		assert.True(t, profile.CurrentProgress.Timestamp.Equal(loaded.CurrentProgress.Timestamp))
	})

	t.Run("Load Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, profileID)
		require.NoError(t, err)
		loaded.Points = 9999

		again, err := store.Load(ctx, profileID)
		require.NoError(t, err)
		assert.Equal(t, 150, again.Points, "mutating a loaded profile must not change the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+profileID)
		assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, domain.NewProfile(profileID, "tmp"))
		require.NoError(t, err)

		err = store.Delete(ctx, profileID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, profileID)
		assert.ErrorIs(t, err, domain.ErrProfileNotFound, "Load after Delete should return ErrProfileNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := profileID + "-1"
		id2 := profileID + "-2"
		_ = store.Save(ctx, domain.NewProfile(id1, "one"))
		_ = store.Save(ctx, domain.NewProfile(id2, "two"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
