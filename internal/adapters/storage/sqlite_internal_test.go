package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/kellybot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countRows(t *testing.T, s *SQLiteStorage, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func TestSaveAdvice_FailedInsertRollsBackCycle(t *testing.T) {
	s, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	advice := []domain.Advice{
		{ID: "dup", Slug: "a", EvaluatedAt: time.Now()},
		{ID: "dup", Slug: "b", EvaluatedAt: time.Now()},
	}
	advice[0].Recommendation.Amount = 10
	advice[1].Recommendation.Amount = 20

	require.Error(t, s.SaveAdvice(ctx, advice))
	assert.Zero(t, countRows(t, s, "cycles"))
	assert.Zero(t, countRows(t, s, "advice"))
	assert.Empty(t, s.cache)

	advice[0].ID, advice[1].ID = "", ""
	require.NoError(t, s.SaveAdvice(ctx, advice))
	assert.Equal(t, 1, countRows(t, s, "cycles"))
	assert.Equal(t, 2, countRows(t, s, "advice"))
	assert.Len(t, s.cache, 2)
}
