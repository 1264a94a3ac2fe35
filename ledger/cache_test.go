package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAnalysis(symbol string, typ AnalysisType, created time.Time, ttl time.Duration) Analysis {
	return Analysis{
		Symbol:      symbol,
		Type:        typ,
		Score:       68,
		Label:       "BULLISH",
		DetailsJSON: `{"rsi":61.2}`,
		CreatedAt:   created,
		ExpiresAt:   created.Add(ttl),
	}
}

func TestAnalysisExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()
	created := tradingDay(10, 0)

	require.NoError(t, s.SaveAnalysis(ctx, sampleAnalysis("RELIANCE-EQ", AnalysisTechnical, created, 30*time.Minute)))

	// 29 minutes later: visible.
	got, err := s.RecentAnalyses(ctx, "RELIANCE-EQ", "", created.Add(29*time.Minute))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// 31 minutes later: gone from reads, still in storage.
	got, err = s.RecentAnalyses(ctx, "RELIANCE-EQ", "", created.Add(31*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, got)

	var count int
	require.NoError(t, s.db.Get(&count, `SELECT COUNT(*) FROM analysis_cache`))
	assert.Equal(t, 1, count)
}

func TestRecentAnalysesNewestFirstCappedAtFive(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		a := sampleAnalysis("TCS-EQ", AnalysisTechnical, tradingDay(10, i), time.Hour)
		a.Score = float64(i)
		require.NoError(t, s.SaveAnalysis(ctx, a))
	}

	got, err := s.RecentAnalyses(ctx, "TCS-EQ", "", tradingDay(10, 30))
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, 6.0, got[0].Score)
	assert.Equal(t, 2.0, got[4].Score)
}

func TestRecentAnalysesTypeFilter(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()
	created := tradingDay(10, 0)

	require.NoError(t, s.SaveAnalysis(ctx, sampleAnalysis("INFY-EQ", AnalysisTechnical, created, time.Hour)))
	require.NoError(t, s.SaveAnalysis(ctx, sampleAnalysis("INFY-EQ", AnalysisSentiment, created, time.Hour)))
	require.NoError(t, s.SaveAnalysis(ctx, sampleAnalysis("OTHER-EQ", AnalysisTechnical, created, time.Hour)))

	all, err := s.RecentAnalyses(ctx, "INFY-EQ", "", created.Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	technical, err := s.RecentAnalyses(ctx, "INFY-EQ", AnalysisTechnical, created.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, technical, 1)
	assert.Equal(t, AnalysisTechnical, technical[0].Type)
}

func TestSaveAnalysisValidation(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()
	created := tradingDay(10, 0)

	bad := sampleAnalysis("", AnalysisTechnical, created, time.Hour)
	assert.True(t, IsValidation(s.SaveAnalysis(ctx, bad)))

	bad = sampleAnalysis("X-EQ", "ASTROLOGY", created, time.Hour)
	assert.True(t, IsValidation(s.SaveAnalysis(ctx, bad)))

	bad = sampleAnalysis("X-EQ", AnalysisTechnical, created, -time.Minute)
	assert.True(t, IsValidation(s.SaveAnalysis(ctx, bad)))
}

func TestPruneExpiredAnalyses(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		a := sampleAnalysis(fmt.Sprintf("S%d-EQ", i), AnalysisCombined, tradingDay(9, 30), time.Duration(i+1)*time.Hour)
		require.NoError(t, s.SaveAnalysis(ctx, a))
	}

	// Two hours in: the 1h and 2h rows have lapsed.
	pruned, err := s.PruneExpiredAnalyses(ctx, tradingDay(11, 30))
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)

	var count int
	require.NoError(t, s.db.Get(&count, `SELECT COUNT(*) FROM analysis_cache`))
	assert.Equal(t, 1, count)
}
