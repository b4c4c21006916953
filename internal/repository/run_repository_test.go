package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/densitymap-backend-go/internal/database"
	"github.com/jengzang/densitymap-backend-go/internal/models"
)

func newTestRepository(t *testing.T) *RunRepository {
	t.Helper()
	db, err := database.Open(database.Config{Path: database.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRunRepository(db)
}

func TestRunRepositoryCreateAndList(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	run := &models.DensityRun{
		RequestID:     "req-1",
		Fingerprint:   "abc",
		SampleCount:   3,
		Resolution:    100,
		Fudge:         1,
		TrueValue:     "50",
		Categorical:   true,
		Threshold:     "50",
		PositiveCount: 0,
		Status:        models.RunStatusCompleted,
		DurationMs:    12,
	}
	require.NoError(t, repo.Create(ctx, run))
	assert.NotZero(t, run.ID)

	runs, err := repo.List(ctx, models.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, "abc", got.Fingerprint)
	assert.Equal(t, 3, got.SampleCount)
	assert.Equal(t, 100, got.Resolution)
	assert.Equal(t, 1.0, got.Fudge)
	assert.True(t, got.Categorical)
	assert.Equal(t, "50", got.Threshold)
	assert.Equal(t, models.RunStatusCompleted, got.Status)
	assert.Equal(t, int64(12), got.DurationMs)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestRunRepositoryListFilters(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	seed := []struct {
		fingerprint string
		status      string
	}{
		{"a", models.RunStatusCompleted},
		{"b", models.RunStatusFailed},
		{"a", models.RunStatusFailed},
		{"a", models.RunStatusCompleted},
	}
	for i, s := range seed {
		run := &models.DensityRun{
			RequestID:   string(rune('0' + i)),
			Fingerprint: s.fingerprint,
			SampleCount: 1,
			Resolution:  100,
			Fudge:       1,
			Status:      s.status,
		}
		require.NoError(t, repo.Create(ctx, run))
	}

	tests := []struct {
		name   string
		filter models.RunFilter
		want   []string // request ids, newest first
	}{
		{"all", models.RunFilter{}, []string{"3", "2", "1", "0"}},
		{"by status", models.RunFilter{Status: models.RunStatusFailed}, []string{"2", "1"}},
		{"by fingerprint", models.RunFilter{Fingerprint: "a"}, []string{"3", "2", "0"}},
		{"both", models.RunFilter{Fingerprint: "a", Status: models.RunStatusCompleted}, []string{"3", "0"}},
		{"page", models.RunFilter{Limit: 2, Offset: 1}, []string{"2", "1"}},
		{"negative offset", models.RunFilter{Limit: 1, Offset: -5}, []string{"3"}},
		{"no match", models.RunFilter{Fingerprint: "zzz"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)

			ids := make([]string, len(runs))
			for i, r := range runs {
				ids[i] = r.RequestID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestRunRepositoryStoresErrorMessage(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.DensityRun{
		RequestID:    "r",
		Fingerprint:  "f",
		Status:       models.RunStatusFailed,
		ErrorMessage: "context deadline exceeded",
	}))

	runs, err := repo.List(ctx, models.RunFilter{Status: models.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "context deadline exceeded", runs[0].ErrorMessage)
}
