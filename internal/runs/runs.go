// Package runs persists a manifest for every cleaning run so earlier
// results can be listed and inspected.
package runs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/medclean-cli/internal/report"
	"github.com/KaramelBytes/medclean-cli/internal/utils"
)

const manifestFileName = "run.json"

var (
	ErrNotFound  = errors.New("run not found")
	ErrAmbiguous = errors.New("run id prefix is ambiguous")
)

// Input describes one source file of a run.
type Input struct {
	Role  string `json:"role"`
	Path  string `json:"path"`
	Found bool   `json:"found"`
	Rows  int    `json:"rows"`
}

// Run is the manifest written as run.json.
type Run struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	OutputDir string          `json:"output_dir"`
	Inputs    []Input         `json:"inputs"`
	Outputs   []string        `json:"outputs"`
	Summary   *report.Summary `json:"summary,omitempty"`

	// Not serialized: directory the manifest was loaded from
	rootDir string `json:"-"`
}

// NewID returns a fresh run identifier.
func NewID() string { return uuid.NewString() }

// New constructs an in-memory run rooted at dir. Call Save() to persist.
func New(id, dir string) *Run {
	if id == "" {
		id = NewID()
	}
	return &Run{ID: id, CreatedAt: time.Now().UTC(), OutputDir: dir, rootDir: dir}
}

// Load reads run.json from dir.
func Load(dir string) (*Run, error) {
	path := filepath.Join(dir, manifestFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read run: %w", err)
	}
	var r Run
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse run %s: %w", path, err)
	}
	r.rootDir = dir
	return &r, nil
}

// RootDir returns the directory holding the manifest.
func (r *Run) RootDir() string { return r.rootDir }

// AddOutput records a written file.
func (r *Run) AddOutput(path string) {
	r.Outputs = append(r.Outputs, path)
}

// Save writes run.json into the run's root directory.
func (r *Run) Save() error {
	if r.rootDir == "" {
		return errors.New("run directory not set")
	}
	return r.SaveIn(r.rootDir)
}

// SaveIn writes run.json atomically into dir.
func (r *Run) SaveIn(dir string) error {
	if err := utils.EnsureDir(dir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	data, err := utils.PrettyJSON(r)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(dir, manifestFileName), data)
}

// List loads every run below runsDir, newest first. Directories without a
// manifest are skipped; a missing runsDir yields no runs.
func List(runsDir string) ([]*Run, error) {
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read runs dir: %w", err)
	}
	var out []*Run
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		r, err := Load(filepath.Join(runsDir, e.Name()))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Find returns the run whose id equals or uniquely starts with id.
func Find(runsDir, id string) (*Run, error) {
	all, err := List(runsDir)
	if err != nil {
		return nil, err
	}
	var match []*Run
	for _, r := range all {
		if r.ID == id {
			return r, nil
		}
		if strings.HasPrefix(r.ID, id) {
			match = append(match, r)
		}
	}
	switch len(match) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return match[0], nil
	}
	return nil, fmt.Errorf("%w: %s matches %d runs", ErrAmbiguous, id, len(match))
}
