package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lavan1999/agentic-ai/internal/cdm"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"), true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleResponse() cdm.Response {
	accepted := cdm.DecisionAccepted
	feedback := "Declared total within band."
	return cdm.Response{
		DeclarationID: "DEC-1",
		Results: []cdm.RiskResult{
			{
				RiskID:   "v1",
				RiskType: "valuation",
				Output:   cdm.RiskOutput{Decision: &accepted, Feedback: &feedback},
				Verifier: &cdm.Feedback{Kind: cdm.FeedbackValuation, Status: cdm.StatusAccepted, Explanation: "ok"},
				Duration: 1500 * time.Millisecond,
			},
			{
				RiskID:   "t1",
				RiskType: "TARIFF",
				Err:      errors.New("fetch tariff reference 1234: connection reset"),
			},
		},
	}
}

func TestNewRun(t *testing.T) {
	run := NewRun(sampleResponse(), time.Now(), 2000)
	assert.Equal(t, "DEC-1", run.DeclarationID)
	assert.Equal(t, 2, run.RiskCount)
	assert.Equal(t, 1, run.FailedCount)
	require.Len(t, run.Outcomes, 2)

	first := run.Outcomes[0]
	assert.Equal(t, "VALUATION", first.RiskType)
	assert.Equal(t, "ACCEPTED", first.VerifierStatus)
	require.NotNil(t, first.Decision)
	assert.Equal(t, "ACCEPTED", *first.Decision)
	assert.Equal(t, int64(1500), first.DurationMs)

	second := run.Outcomes[1]
	assert.True(t, second.Failed())
	assert.Nil(t, second.Feedback)
	assert.Contains(t, second.Error, "connection reset")
}

func TestSaveAndGetRun(t *testing.T) {
	db := openTestDB(t)

	run := NewRun(sampleResponse(), time.Now(), 2000)
	require.NoError(t, db.SaveRun(run))
	require.NotEmpty(t, run.ID)

	loaded, err := db.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "DEC-1", loaded.DeclarationID)
	require.Len(t, loaded.Outcomes, 2)
	assert.Equal(t, "v1", loaded.Outcomes[0].RiskID)
	assert.Equal(t, "t1", loaded.Outcomes[1].RiskID)
	assert.Nil(t, loaded.Outcomes[1].Decision)

	_, err = db.GetRun("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	assert.Error(t, db.SaveRun(nil))
}

func TestListRuns(t *testing.T) {
	db := openTestDB(t)

	for _, id := range []string{"DEC-1", "DEC-2", "DEC-1"} {
		resp := sampleResponse()
		resp.DeclarationID = id
		require.NoError(t, db.SaveRun(NewRun(resp, time.Now(), 10)))
	}

	runs, total, err := db.ListRuns(RunQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, runs, 2)
	assert.Empty(t, runs[0].Outcomes)

	runs, total, err = db.ListRuns(RunQuery{DeclarationID: "DEC-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, run := range runs {
		assert.Equal(t, "DEC-1", run.DeclarationID)
	}

	_, total, err = db.ListRuns(RunQuery{Since: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRunKeepsStartTime(t *testing.T) {
	db := openTestDB(t)

	started := time.Now().Add(-48 * time.Hour).Truncate(time.Second)
	old := NewRun(sampleResponse(), started, 10)
	require.NoError(t, db.SaveRun(old))
	require.NoError(t, db.SaveRun(NewRun(sampleResponse(), time.Now(), 10)))

	loaded, err := db.GetRun(old.ID)
	require.NoError(t, err)
	assert.True(t, loaded.CreatedAt.Equal(started), "created_at %s, want %s", loaded.CreatedAt, started)
	assert.True(t, loaded.Outcomes[0].CreatedAt.Equal(started))

	_, total, err := db.ListRuns(RunQuery{Since: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	removed, err := db.PruneRuns(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestDecisionCountsAndPrune(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveRun(NewRun(sampleResponse(), time.Now(), 10)))
	require.NoError(t, db.SaveRun(NewRun(sampleResponse(), time.Now(), 10)))

	counts, err := db.DecisionCounts(time.Time{})
	require.NoError(t, err)
	require.Len(t, counts, 2)
	byDecision := map[string]DecisionCount{}
	for _, c := range counts {
		byDecision[c.Decision] = c
	}
	assert.Equal(t, 2, byDecision["ACCEPTED"].Total)
	assert.Equal(t, "VALUATION", byDecision["ACCEPTED"].RiskType)
	assert.Equal(t, 2, byDecision[""].Total)

	removed, err := db.PruneRuns(time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	counts, err = db.DecisionCounts(time.Time{})
	require.NoError(t, err)
	assert.Empty(t, counts)
}
