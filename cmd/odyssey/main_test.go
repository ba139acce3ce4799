package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-access/internal/app"
	_ "github.com/odyssey-erp/odyssey-access/testing"
)

func TestServeSkippedInTestMode(t *testing.T) {
	require.True(t, app.InTestMode())
	require.NoError(t, serve(context.Background()))
	require.Equal(t, 0, run(context.Background(), []string{"serve"}, new(bytes.Buffer), new(bytes.Buffer)))
}

func TestOfflineCommandsRunInTestMode(t *testing.T) {
	stdout := new(bytes.Buffer)
	code := run(context.Background(), []string{"check", "Administrator", "schedule", "view"}, stdout, new(bytes.Buffer))
	require.Equal(t, 0, code)
	require.Contains(t, stdout.String(), "Administrator: schedule-view granted")

	stdout.Reset()
	code = run(context.Background(), []string{"grants", "Maintenance Technician"}, stdout, new(bytes.Buffer))
	require.Equal(t, 0, code)
	require.Contains(t, stdout.String(), "maintenance-planning-view")
}

func TestRunReportsDeniedCheck(t *testing.T) {
	code := run(context.Background(), []string{"check", "Data Analyst", "tenant-admin", "view"}, new(bytes.Buffer), new(bytes.Buffer))
	require.Equal(t, 10, code)
}

func TestRunReportsUsageErrors(t *testing.T) {
	stderr := new(bytes.Buffer)
	code := run(context.Background(), []string{"check", "Trainer"}, new(bytes.Buffer), stderr)
	require.Equal(t, 1, code)
	require.NotEmpty(t, stderr.String())
}
