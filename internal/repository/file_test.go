package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
	"github.com/twiced-technology-gmbh/backplan/internal/config"
	"github.com/twiced-technology-gmbh/backplan/internal/date"
	"github.com/twiced-technology-gmbh/backplan/internal/task"
)

func newPlan(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Init(filepath.Join(t.TempDir(), config.DefaultDir), "Launch", date.New(2024, 6, 14))
	require.NoError(t, err)
	return cfg
}

func TestFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := newPlan(t)
	repo := NewFile(cfg)

	p, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, p.Tasks)

	end := date.New(2024, 6, 14)
	p.Description = "Public beta"
	p.Tasks = []*task.Task{
		{ID: 1, Name: "Build", Duration: 3},
		{ID: 2, Name: "Ship it", Duration: 1, DependsOn: []int{1}, End: &end, Notes: "Tag the release.\n"},
	}
	require.NoError(t, repo.Save(ctx, p))

	assert.FileExists(t, filepath.Join(cfg.TasksPath(), "001-build.md"))
	assert.FileExists(t, filepath.Join(cfg.TasksPath(), "002-ship-it.md"))

	reloadedCfg, err := config.Load(cfg.Dir())
	require.NoError(t, err)
	loaded, err := NewFile(reloadedCfg).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Public beta", loaded.Description)
	assert.Equal(t, p.ID, loaded.ID)
	require.Len(t, loaded.Tasks, 2)
	assert.Equal(t, []int{1}, loaded.Tasks[1].DependsOn)
	assert.Equal(t, "Tag the release.\n", loaded.Tasks[1].Notes)
	assert.Equal(t, 3, loaded.NextID)
}

func TestFileSaveRemovesStaleAndRenamed(t *testing.T) {
	ctx := context.Background()
	cfg := newPlan(t)
	repo := NewFile(cfg)
	p, err := repo.Load(ctx)
	require.NoError(t, err)

	p.Tasks = []*task.Task{
		{ID: 1, Name: "Build", Duration: 3},
		{ID: 2, Name: "Test", Duration: 1, DependsOn: []int{1}},
	}
	require.NoError(t, repo.Save(ctx, p))
	notes := filepath.Join(cfg.TasksPath(), "notes.md")
	require.NoError(t, os.WriteFile(notes, []byte("scratch"), 0o600))

	p.Tasks = []*task.Task{{ID: 1, Name: "Build and package", Duration: 3}}
	require.NoError(t, repo.Save(ctx, p))

	entries, err := os.ReadDir(cfg.TasksPath())
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"001-build-and-package.md", "notes.md"}, names)
}

func TestFileCatalog(t *testing.T) {
	ctx := context.Background()
	cfg := newPlan(t)
	repo := NewFile(cfg)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, cfg.Project.ID, list[0].ID)
	assert.Equal(t, "Launch", list[0].Name)
	assert.Zero(t, list[0].Tasks)

	assert.True(t, clierr.HasCode(repo.Delete(ctx, uuid.New()), clierr.PlanNotFound))
	assert.DirExists(t, cfg.Dir())

	require.NoError(t, repo.Delete(ctx, cfg.Project.ID))
	assert.NoDirExists(t, cfg.Dir())
}
