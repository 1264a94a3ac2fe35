package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/paperledger/ledger"
)

func testAnalysis(symbol string, typ ledger.AnalysisType, created time.Time) ledger.Analysis {
	return ledger.Analysis{
		Symbol:      symbol,
		Type:        typ,
		Score:       68,
		Label:       "BULLISH",
		DetailsJSON: `{"rsi":61.2}`,
		CreatedAt:   created,
		ExpiresAt:   created.Add(30 * time.Minute),
	}
}

func TestRedisSave(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db)

	created := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	a := testAnalysis("RELIANCE-EQ", ledger.AnalysisTechnical, created)

	payload, err := json.Marshal(a)
	require.NoError(t, err)
	key := entryKey(a)

	mock.ExpectSet(key, payload, 30*time.Minute).SetVal("OK")
	mock.ExpectZAdd("analysis:index:RELIANCE-EQ", &redis.Z{
		Score:  float64(created.UnixNano()),
		Member: key,
	}).SetVal(1)
	mock.ExpectSAdd(symbolsKey, "RELIANCE-EQ").SetVal(1)

	assert.NoError(t, s.Save(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisSaveRejectsInvertedExpiry(t *testing.T) {
	t.Parallel()

	db, _ := redismock.NewClientMock()
	s := NewRedisStore(db)

	a := testAnalysis("X-EQ", ledger.AnalysisTechnical, time.Now())
	a.ExpiresAt = a.CreatedAt

	err := s.Save(context.Background(), a)
	assert.True(t, ledger.IsValidation(err))
}

func TestRedisRecentFiltersExpiredAndKind(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db)

	created := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	fresh := testAnalysis("TCS-EQ", ledger.AnalysisTechnical, created.Add(5*time.Minute))
	stale := testAnalysis("TCS-EQ", ledger.AnalysisTechnical, created.Add(-2*time.Hour))
	stale.ExpiresAt = created.Add(-90 * time.Minute)
	sentiment := testAnalysis("TCS-EQ", ledger.AnalysisSentiment, created)

	freshJSON, _ := json.Marshal(fresh)
	staleJSON, _ := json.Marshal(stale)
	sentimentJSON, _ := json.Marshal(sentiment)

	keys := []string{entryKey(fresh), entryKey(sentiment), entryKey(stale), "analysis:TCS-EQ:gone"}
	mock.ExpectZRevRange("analysis:index:TCS-EQ", 0, indexScan-1).SetVal(keys)
	mock.ExpectMGet(keys...).SetVal([]interface{}{
		string(freshJSON), string(sentimentJSON), string(staleJSON), nil,
	})

	got, err := s.Recent(context.Background(), "TCS-EQ", ledger.AnalysisTechnical, created.Add(10*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, fresh.CreatedAt, got[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisRecentEmptyIndex(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db)

	mock.ExpectZRevRange("analysis:index:NOPE-EQ", 0, indexScan-1).SetVal(nil)

	got, err := s.Recent(context.Background(), "NOPE-EQ", "", time.Now())
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisPruneSweepsDeadIndexMembers(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db)

	created := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	live := testAnalysis("INFY-EQ", ledger.AnalysisCombined, created)
	liveJSON, _ := json.Marshal(live)
	liveKey := entryKey(live)
	deadKey := "analysis:INFY-EQ:COMBINED:1"

	mock.ExpectSMembers(symbolsKey).SetVal([]string{"INFY-EQ"})
	mock.ExpectZRange("analysis:index:INFY-EQ", 0, -1).SetVal([]string{liveKey, deadKey})
	mock.ExpectMGet(liveKey, deadKey).SetVal([]interface{}{string(liveJSON), nil})
	mock.ExpectZRem("analysis:index:INFY-EQ", deadKey).SetVal(1)

	swept, err := s.Prune(context.Background(), created.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)
	assert.NoError(t, mock.ExpectationsWereMet())
}
