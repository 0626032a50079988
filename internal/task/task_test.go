package task

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
	"github.com/twiced-technology-gmbh/backplan/internal/date"
)

func TestCloneIsDeep(t *testing.T) {
	start := date.New(2024, 6, 10)
	orig := &Task{ID: 1, Name: "Design", Duration: 2, DependsOn: []int{3}, Start: &start}
	c := orig.Clone()
	c.DependsOn[0] = 9
	*c.Start = date.New(2025, 1, 1)

	assert.Equal(t, []int{3}, orig.DependsOn)
	assert.Equal(t, "2024-06-10", orig.Start.String())
}

func TestNextID(t *testing.T) {
	assert.Equal(t, 1, NextID(nil))
	assert.Equal(t, 8, NextID([]*Task{{ID: 2}, {ID: 7}, {ID: 3}}))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		task Task
		code string
	}{
		{"ok", Task{ID: 1, Name: "Build", Duration: 1}, ""},
		{"blank name", Task{ID: 1, Name: "  ", Duration: 1}, clierr.InvalidInput},
		{"zero duration", Task{ID: 1, Name: "Build", Duration: 0}, clierr.InvalidDuration},
		{"negative duration", Task{ID: 1, Name: "Build", Duration: -3}, clierr.InvalidDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.task)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, clierr.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestValidateDependencies(t *testing.T) {
	tasks := []*Task{{ID: 1}, {ID: 2}}
	assert.NoError(t, ValidateDependencies(3, []int{1, 2}, tasks))
	assert.True(t, clierr.HasCode(ValidateDependencies(1, []int{1}, tasks), clierr.SelfReference))
	assert.True(t, clierr.HasCode(ValidateDependencies(3, []int{1, 1}, tasks), clierr.DuplicateDependency))
	assert.True(t, clierr.HasCode(ValidateDependencies(3, []int{5}, tasks), clierr.DependencyNotFound))
}

func TestValidationErrorsNameTheField(t *testing.T) {
	tasks := []*Task{{ID: 1}}
	tests := []struct {
		name  string
		err   error
		field string
	}{
		{"name", Validate(&Task{ID: 1, Name: " ", Duration: 1}), "name"},
		{"duration", Validate(&Task{ID: 1, Name: "Build", Duration: 0}), "duration"},
		{"missing dependency", ValidateDependencies(2, []int{9}, tasks), "dependencies"},
		{"self dependency", ValidateDependencies(1, []int{1}, tasks), "dependencies"},
		{"duplicate dependency", ValidateDependencies(2, []int{1, 1}, tasks), "dependencies"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cerr *clierr.Error
			require.ErrorAs(t, tt.err, &cerr)
			assert.Equal(t, tt.field, cerr.Details["field"])
		})
	}
}

func TestEncodeDecodeKeepsNotes(t *testing.T) {
	end := date.New(2024, 6, 14)
	orig := &Task{ID: 4, Name: "Deploy", Duration: 1, DependsOn: []int{2, 3}, End: &end, Notes: "# Checklist\n\n- smoke test\n"}

	data, err := Encode(orig)
	require.NoError(t, err)
	assert.Contains(t, string(data), "---\nid: 4\n")

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, orig.Name, got.Name)
	assert.Equal(t, []int{2, 3}, got.DependsOn)
	assert.Equal(t, "2024-06-14", got.End.String())
	assert.Nil(t, got.Start)
	assert.Equal(t, orig.Notes, got.Notes)
}

func TestDecodeRejectsMissingFrontmatter(t *testing.T) {
	_, err := Decode([]byte("id: 1\n"))
	assert.Error(t, err)
	_, err = Decode([]byte("---\nid: 1\n"))
	assert.Error(t, err)
}

func TestWriteReadAll(t *testing.T) {
	dir := t.TempDir()
	for _, tk := range []*Task{
		{ID: 2, Name: "Second", Duration: 2, DependsOn: []int{1}},
		{ID: 1, Name: "First", Duration: 1},
	} {
		require.NoError(t, Write(filepath.Join(dir, Filename(tk)), tk))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0o600))

	tasks, err := ReadAll(dir)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, 1, tasks[0].ID)
	assert.Equal(t, 2, tasks[1].ID)

	names, err := Files(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"001-first.md", "002-second.md"}, names)

	leftovers, err := filepath.Glob(filepath.Join(dir, ".task-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestReadAllRejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(filepath.Join(dir, "001-first.md"), &Task{ID: 1, Name: "First", Duration: 1}))
	require.NoError(t, Write(filepath.Join(dir, "001-copy.md"), &Task{ID: 1, Name: "Copy", Duration: 1}))

	_, err := ReadAll(dir)
	assert.True(t, clierr.HasCode(err, clierr.InvalidInput))
}

func TestReadAllMissingDir(t *testing.T) {
	tasks, err := ReadAll(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Nil(t, tasks)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "set-up-ci-cd", GenerateSlug("Set up CI/CD!"))
	assert.Equal(t, "task", GenerateSlug("???"))
	long := GenerateSlug("implement the entire backend persistence layer with migrations")
	assert.LessOrEqual(t, len(long), maxSlugLength)
	assert.NotContains(t, long[len(long)-1:], "-")
	assert.Equal(t, "1234-x.md", Filename(&Task{ID: 1234, Name: "x"}))
	assert.Equal(t, "007-x.md", Filename(&Task{ID: 7, Name: "x"}))
}
