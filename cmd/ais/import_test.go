package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/ai-session-import/internal/config"
	"github.com/Zuo-Peng/ai-session-import/internal/importer"
	"github.com/Zuo-Peng/ai-session-import/internal/model"
	"github.com/Zuo-Peng/ai-session-import/internal/provider"
)

func writeClaudeHome(t *testing.T, slugs ...string) string {
	t.Helper()
	root := t.TempDir()
	line := `{"type":"user","uuid":"u1","timestamp":"2025-01-01T00:00:00Z","message":{"role":"user","content":"please fix the build"}}` + "\n"
	for _, slug := range slugs {
		dir := filepath.Join(root, "projects", slug)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "s1.jsonl"), []byte(line), 0o644))
	}
	return root
}

func TestPlanJobs_DetectsPath(t *testing.T) {
	root := writeClaudeHome(t, "-Users-me-app")
	d := provider.Default(nil, t.TempDir())

	jobs, err := planJobs(d, &config.Config{}, "", []string{root})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, model.ProviderClaudeCode, jobs[0].source.Name())

	jobs, err = planJobs(d, &config.Config{}, model.ProviderCowork, []string{root})
	require.NoError(t, err)
	assert.Equal(t, model.ProviderCowork, jobs[0].source.Name())

	_, err = planJobs(d, &config.Config{}, "gemini", []string{root})
	assert.ErrorContains(t, err, `unknown provider "gemini"`)

	_, err = planJobs(d, &config.Config{}, "", []string{t.TempDir()})
	assert.ErrorContains(t, err, "no known export format")
}

func TestPlanJobs_Local(t *testing.T) {
	home := writeClaudeHome(t, "-Users-me-app", "-sessions-task")
	d := provider.Default(nil, home)
	cfg := &config.Config{ClaudeRoot: home}

	jobs, err := planJobs(d, cfg, "", nil)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, model.ProviderCowork, jobs[0].source.Name())
	assert.Equal(t, model.ProviderClaudeCode, jobs[1].source.Name())

	jobs, err = planJobs(d, cfg, model.ProviderClaudeCode, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	_, err = planJobs(provider.Default(nil, t.TempDir()), &config.Config{ClaudeRoot: t.TempDir()}, "", nil)
	assert.ErrorContains(t, err, "no local sessions")
}

func TestDryRunSink(t *testing.T) {
	home := writeClaudeHome(t, "-Users-me-app")
	d := provider.Default(nil, t.TempDir())
	a, ok := d.Detect(home)
	require.True(t, ok)

	r, err := importer.Run(context.Background(), a, home, newDryRunSink(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Projects)
	assert.Equal(t, 1, r.Conversations)
	assert.Equal(t, 4, r.Words)
	assert.Zero(t, r.Unresolved)
}
