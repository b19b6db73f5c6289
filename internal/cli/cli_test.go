// SPDX-License-Identifier: AGPL-3.0-only
package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("POSTGRES_DB", "")
	t.Setenv("POSTGRES_USER", "")
	t.Setenv("POSTGRES_PASSWORD", "")

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMetricsCommandPrintsSyntheticView(t *testing.T) {
	out, err := run(t, "metrics", "--id", "42", "--name", "Alice", "--days", "7")
	require.NoError(t, err)

	var view metrics.MetricsView
	require.NoError(t, json.Unmarshal([]byte(out), &view))

	want := metrics.Aggregate(nil, nil, metrics.Identity{ID: "42", Name: "Alice"})
	assert.True(t, view.Synthetic)
	assert.Equal(t, want.TotalReach, view.TotalReach)
	assert.Equal(t, want.TotalEngagement, view.TotalEngagement)
	assert.Equal(t, want.DemographicsData, view.DemographicsData)
}

func TestMetricsCommandRejectsConflictingTokenFlags(t *testing.T) {
	_, err := run(t, "metrics", "--token", "x", "--prompt-token")
	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestMigrateRequiresDatabase(t *testing.T) {
	_, err := run(t, "migrate")
	assert.ErrorContains(t, err, "database is not configured")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "v1.4.0")
}
