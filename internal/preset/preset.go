// Package preset provides task templates a project can start from.
package preset

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
	"github.com/twiced-technology-gmbh/backplan/internal/graph"
	"github.com/twiced-technology-gmbh/backplan/internal/task"
)

// DirName is the plan subdirectory holding additional preset files.
const DirName = "presets"

//go:embed presets.yml
var embedded []byte

// Preset is a named template of tasks.
type Preset struct {
	ID          string       `yaml:"id" json:"id"`
	Name        string       `yaml:"name" json:"name"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Tasks       []*task.Task `yaml:"tasks" json:"tasks"`
}

// Instantiate returns fresh copies of the preset's tasks.
func (p Preset) Instantiate() []*task.Task {
	return task.CloneAll(p.Tasks)
}

// Validate checks that the template is a schedulable task list.
func (p Preset) Validate() error {
	if p.ID == "" {
		return errors.New("preset without id")
	}
	for _, t := range p.Tasks {
		if err := task.Validate(t); err != nil {
			return fmt.Errorf("preset %s task %d: %w", p.ID, t.ID, err)
		}
	}
	if _, err := graph.Build(p.Tasks); err != nil {
		return fmt.Errorf("preset %s: %w", p.ID, err)
	}
	return nil
}

// Catalog looks presets up by id.
type Catalog interface {
	List() []Preset
	Get(id string) (Preset, error)
}

// Static is an in-memory catalog.
type Static struct {
	byID map[string]Preset
}

// NewStatic builds a catalog from presets; later entries replace earlier
// ones with the same id.
func NewStatic(presets ...Preset) (*Static, error) {
	c := &Static{byID: make(map[string]Preset, len(presets))}
	for _, p := range presets {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		c.byID[p.ID] = p
	}
	return c, nil
}

// Embedded returns the built-in catalog.
func Embedded() (*Static, error) {
	presets, err := parse(embedded)
	if err != nil {
		return nil, fmt.Errorf("parsing built-in presets: %w", err)
	}
	return NewStatic(presets...)
}

// Load returns the built-in catalog merged with every *.yml file in
// planDir/presets. A missing directory is not an error.
func Load(planDir string) (*Static, error) {
	presets, err := parse(embedded)
	if err != nil {
		return nil, fmt.Errorf("parsing built-in presets: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(planDir, DirName, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("listing presets: %w", err)
	}
	sort.Strings(files)
	for _, path := range files {
		data, err := os.ReadFile(path) //nolint:gosec // path from plan dir
		if err != nil {
			return nil, fmt.Errorf("reading preset file: %w", err)
		}
		more, err := parse(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
		}
		presets = append(presets, more...)
	}
	return NewStatic(presets...)
}

// List returns every preset sorted by id.
func (c *Static) List() []Preset {
	out := make([]Preset, 0, len(c.byID))
	for _, p := range c.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns the preset with id or a PRESET_NOT_FOUND error.
func (c *Static) Get(id string) (Preset, error) {
	p, ok := c.byID[id]
	if !ok {
		ids := make([]string, 0, len(c.byID))
		for _, p := range c.List() {
			ids = append(ids, p.ID)
		}
		return Preset{}, clierr.Newf(clierr.PresetNotFound, "preset %q not found", id).
			WithDetails(map[string]any{"id": id, "available": ids})
	}
	return p, nil
}

func parse(data []byte) ([]Preset, error) {
	var presets []Preset
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, err
	}
	return presets, nil
}
