package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TowneMJ/gpqa-train/internal/models"
)

func TestSaveResults_WritesBothSets(t *testing.T) {
	verifiedDir := filepath.Join(t.TempDir(), "reviewed")
	rejectedDir := filepath.Join(t.TempDir(), "rejected")

	verified := []models.VerifiedQuestion{
		{Question: models.Question{Index: 0, Text: "q1"}, VerificationTag: models.TagExpertVerified},
		{Question: models.Question{Index: 1, Text: "q2"}, VerificationTag: models.TagModelVerified},
		{Question: models.Question{Index: 2, Text: "q3"}, VerificationTag: models.TagModelVerified},
	}
	rejected := []models.RejectedQuestion{
		{
			Question:        models.Question{Index: 3, Text: "q4"},
			ReviewStatus:    models.DispositionRejected,
			RejectionReason: "ambiguous",
			Verdicts:        []models.Verdict{{Reviewer: "m", Outcome: models.OutcomeFail}},
		},
	}

	report, err := SaveResults(verifiedDir, rejectedDir, verified, rejected)
	require.NoError(t, err)

	assert.Equal(t, 3, report.VerifiedCount)
	assert.Equal(t, 1, report.RejectedCount)
	assert.Equal(t, 1, report.TagCounts[models.TagExpertVerified])
	assert.Equal(t, 2, report.TagCounts[models.TagModelVerified])

	var loadedVerified []models.VerifiedQuestion
	data, err := os.ReadFile(report.VerifiedPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &loadedVerified))
	assert.Len(t, loadedVerified, 3)

	var loadedRejected []models.RejectedQuestion
	data, err = os.ReadFile(report.RejectedPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &loadedRejected))
	require.Len(t, loadedRejected, 1)
	assert.Equal(t, "ambiguous", loadedRejected[0].RejectionReason)
	assert.Len(t, loadedRejected[0].Verdicts, 1)
}

func TestSaveResults_EmptySetsWriteNothing(t *testing.T) {
	verifiedDir := filepath.Join(t.TempDir(), "reviewed")
	rejectedDir := filepath.Join(t.TempDir(), "rejected")

	report, err := SaveResults(verifiedDir, rejectedDir, nil, nil)
	require.NoError(t, err)

	assert.Empty(t, report.VerifiedPath)
	assert.Empty(t, report.RejectedPath)
	_, err = os.Stat(verifiedDir)
	assert.True(t, os.IsNotExist(err), "no output dir is created for an empty set")
}

func TestWriteJSON_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	require.NoError(t, writeJSON(path, map[string]int{"a": 1}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.json", entries[0].Name())
}

func TestWriteBatch_TimestampedName(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteBatch(dir, []BatchRecord{{Success: false, Error: "call failed"}})
	require.NoError(t, err)

	assert.Regexp(t, `batch_\d{8}_\d{6}\.json$`, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []BatchRecord
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "call failed", records[0].Error)
}

func TestCompile_MergesVerifiedSets(t *testing.T) {
	dir := t.TempDir()
	in1 := filepath.Join(dir, "reviewed_1.json")
	in2 := filepath.Join(dir, "reviewed_2.json")
	out := filepath.Join(dir, "training.json")

	write := func(path string, qs []models.VerifiedQuestion) {
		data, err := json.Marshal(qs)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data, 0644))
	}
	write(in1, []models.VerifiedQuestion{
		{Question: models.Question{Text: "q1"}, VerificationTag: models.TagExpertVerified},
	})
	write(in2, []models.VerifiedQuestion{
		{Question: models.Question{Text: "q2"}, VerificationTag: models.TagModelVerified},
		{Question: models.Question{Text: "q3"}, VerificationTag: models.TagModelVerified},
	})

	n, err := Compile([]string{in1, in2}, out)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var merged []models.VerifiedQuestion
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &merged))
	assert.Len(t, merged, 3)
}

func TestCompile_MissingInputIsFatal(t *testing.T) {
	_, err := Compile([]string{filepath.Join(t.TempDir(), "nope.json")}, filepath.Join(t.TempDir(), "out.json"))
	assert.Error(t, err)
}
