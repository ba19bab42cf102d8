package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "compliance/pkg/errors"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		artifact Artifact
		want     Format
	}{
		{artifact: Artifact{Name: "a.json", Data: []byte("x: 1")}, want: FormatJSON},
		{artifact: Artifact{Name: "a.YML"}, want: FormatYAML},
		{artifact: Artifact{Name: "a.yaml"}, want: FormatYAML},
		{artifact: Artifact{Name: "upload", Data: []byte("  {\"a\":1}")}, want: FormatJSON},
		{artifact: Artifact{Name: "upload", Data: []byte("a: 1")}, want: FormatYAML},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectFormat(tt.artifact), tt.artifact.Name)
	}
}

func TestIngest_MergesInOrder(t *testing.T) {
	ingestor := NewStructuredIngestor(WithConcurrency(2))
	artifacts := []Artifact{
		{Name: "page1.json", Data: []byte(`{"host": "Zhang", "attendees_expected": 10, "place": "Room 1"}`)},
		{Name: "page2.yaml", Data: []byte("attendees_actual: 8\nplace: Room 3\nmeeting_time_start: \"14:00\"\n")},
		{Name: "page3.json", Data: []byte(`{"absent_reason": ""}`)},
	}

	record, err := ingestor.Ingest(context.Background(), artifacts)
	require.NoError(t, err)

	assert.Equal(t, "Zhang", record["host"])
	assert.Equal(t, float64(10), record["attendees_expected"])
	assert.Equal(t, 8, record["attendees_actual"])
	assert.Equal(t, "Room 3", record["place"], "later artifacts override earlier keys")
	assert.Equal(t, "14:00", record["meeting_time_start"])
	assert.Equal(t, "", record["absent_reason"])
}

func TestIngest_Failures(t *testing.T) {
	ingestor := NewStructuredIngestor()

	tests := []struct {
		name      string
		artifacts []Artifact
	}{
		{name: "no artifacts"},
		{name: "empty artifact", artifacts: []Artifact{{Name: "a.json", Data: []byte("  ")}}},
		{name: "bad json", artifacts: []Artifact{{Name: "a.json", Data: []byte(`{"a":`)}}},
		{name: "json array", artifacts: []Artifact{{Name: "a.json", Data: []byte(`[1,2]`)}}},
		{name: "bad yaml", artifacts: []Artifact{{Name: "a.yaml", Data: []byte("a: [1, 2")}}},
		{name: "one bad among good", artifacts: []Artifact{
			{Name: "a.json", Data: []byte(`{"a":1}`)},
			{Name: "b.yaml", Data: []byte("- just\n- a list\n")},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ingestor.Ingest(context.Background(), tt.artifacts)
			require.Error(t, err)
			assert.True(t, apperrors.IsIngestion(err), "got %v", err)
		})
	}
}

func TestIngest_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStructuredIngestor().Ingest(ctx, []Artifact{{Name: "a.json", Data: []byte(`{"a":1}`)}})
	require.Error(t, err)
	assert.True(t, apperrors.IsIngestion(err))
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "2026", "oct"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2026", "oct", "b.yaml"), []byte("host: B\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2026", "a.yaml"), []byte("host: A\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	artifacts, err := LoadFiles([]string{
		filepath.Join(dir, "**", "*.yaml"),
		filepath.Join(dir, "2026", "a.yaml"),
	})
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, filepath.Join(dir, "2026", "a.yaml"), artifacts[0].Name)
	assert.Equal(t, filepath.Join(dir, "2026", "oct", "b.yaml"), artifacts[1].Name)

	record, err := NewStructuredIngestor().Ingest(context.Background(), artifacts)
	require.NoError(t, err)
	assert.Equal(t, "B", record["host"])
}

func TestResolveFiles_NoMatch(t *testing.T) {
	_, err := ResolveFiles([]string{filepath.Join(t.TempDir(), "*.json")})
	require.Error(t, err)
	assert.True(t, apperrors.IsIngestion(err))
}
