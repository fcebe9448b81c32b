package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archive.alpha.io/archive/internal/domain"
	"archive.alpha.io/archive/internal/provider"
)

// parseArgs executes the root command with a run function that only
// captures the parsed options.
func parseArgs(t *testing.T, args ...string) (options, error) {
	t.Helper()
	var got options
	cmd := newRootCmd(io.Discard, func(_ context.Context, opts options, _ io.Writer) error {
		got = opts
		return nil
	})
	cmd.SetArgs(append([]string{}, args...))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return got, err
}

func TestRootCmd_Flags(t *testing.T) {
	t.Parallel()

	opts, err := parseArgs(t, "--source", "culture", "--page", "2", "--rows", "50", "--from", "20260101", "-o", "json", "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceCultureDataPortal, opts.source)
	assert.Equal(t, provider.Params{PageNo: 2, NumOfRows: 50, From: "20260101"}, opts.params)
	assert.Equal(t, "json", opts.output)
	assert.True(t, opts.dryRun)

	opts, err = parseArgs(t)
	require.NoError(t, err)
	assert.Equal(t, "", opts.source)
	assert.Equal(t, "yaml", opts.output)
}

func TestRootCmd_InvalidFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{name: "negative rows", args: []string{"--rows", "-1"}},
		{name: "bad output", args: []string{"--output", "xml"}},
		{name: "unknown flag", args: []string{"--bogus"}},
		{name: "positional", args: []string{"culture"}},
		{name: "dry run with migrate", args: []string{"--dry-run", "--migrate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestRootCmd_PropagatesRunError(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd(io.Discard, func(context.Context, options, io.Writer) error {
		return errPartial
	})
	cmd.SetArgs([]string{})
	err := cmd.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, errPartial)
}

func TestResolveSource(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                     "",
		"all":                  "",
		"culture":              domain.SourceCultureDataPortal,
		"Cultural":             domain.SourceCulturalDataPortal,
		"cultural_data_portal": domain.SourceCulturalDataPortal,
	}
	for in, want := range tests {
		assert.Equal(t, want, resolveSource(in), in)
	}
}

func TestWriteResult(t *testing.T) {
	t.Parallel()

	result := domain.Aggregate([]domain.SourceResult{
		{SourceName: domain.SourceCultureDataPortal, Processed: 3, Saved: 2},
		{SourceName: domain.SourceCulturalDataPortal, Errors: []string{"Failed to fetch data from source CULTURAL_DATA_PORTAL: timeout"}},
	})

	var yamlOut bytes.Buffer
	require.NoError(t, writeResult(&yamlOut, result, "yaml"))
	assert.Contains(t, yamlOut.String(), "totalProcessed: 3")
	assert.Contains(t, yamlOut.String(), "sourceName: CULTURE_DATA_PORTAL")
	assert.Contains(t, yamlOut.String(), "Failed to fetch data from source CULTURAL_DATA_PORTAL: timeout")

	var jsonOut bytes.Buffer
	require.NoError(t, writeResult(&jsonOut, result, "json"))
	assert.True(t, strings.HasPrefix(jsonOut.String(), "{"))
	assert.Contains(t, jsonOut.String(), `"totalSaved": 2`)
}

func TestDryRunStore(t *testing.T) {
	t.Parallel()

	store := &dryRunStore{}
	n := store.UpsertMany(context.Background(), []*domain.Event{
		{Source: "S", SourceEventID: "1", Title: "ok", Category: domain.CategoryOther, RawPayload: []byte(`{}`)},
		{Source: "S", SourceEventID: "", Title: "missing id", Category: domain.CategoryOther, RawPayload: []byte(`{}`)},
	})
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, store.valid)
}
