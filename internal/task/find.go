package task

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
)

var taskFileRe = regexp.MustCompile(`^\d+-.*\.md$`)

// Files returns the names of task files (NNN-slug.md) in tasksDir.
// A missing directory yields none.
func Files(tasksDir string) ([]string, error) {
	entries, err := os.ReadDir(tasksDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading tasks directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && taskFileRe.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// ReadAll reads every task file in tasksDir, sorted by id. Two files
// claiming the same id are rejected.
func ReadAll(tasksDir string) ([]*Task, error) {
	names, err := Files(tasksDir)
	if err != nil {
		return nil, err
	}

	var tasks []*Task
	seen := make(map[int]string, len(names))
	for _, name := range names {
		t, err := Read(filepath.Join(tasksDir, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		if prev, dup := seen[t.ID]; dup {
			return nil, clierr.Newf(clierr.InvalidInput, "task #%d is defined twice (%s, %s)", t.ID, prev, name).
				WithDetails(map[string]any{"id": t.ID, "files": []string{prev, name}})
		}
		seen[t.ID] = name
		tasks = append(tasks, t)
	}

	slices.SortFunc(tasks, func(a, b *Task) int { return cmp.Compare(a.ID, b.ID) })
	return tasks, nil
}
