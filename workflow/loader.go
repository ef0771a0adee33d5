package workflow

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// DefinitionLoader finds definitions by name.
type DefinitionLoader interface {
	Load(name string) (*Definition, error)
}

// FileLoader loads definitions from {name}.yaml or {name}.yml files under
// a list of directories, searched in order and recursively.
type FileLoader struct {
	dirs []string
}

// NewFileLoader creates a loader over dirs.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{dirs: dirs}
}

// Load returns the first matching definition. A file that exists but fails
// to parse is an error rather than a miss.
func (l *FileLoader) Load(name string) (*Definition, error) {
	for _, dir := range l.dirs {
		path, err := findDefinition(dir, name)
		if err != nil {
			return nil, err
		}
		if path != "" {
			return LoadDefinitionFile(path)
		}
	}
	return nil, fmt.Errorf("workflow: definition %q not found in %v", name, l.dirs)
}

func findDefinition(dir, name string) (string, error) {
	targets := map[string]bool{name + ".yaml": true, name + ".yml": true}
	for _, ext := range []string{".yaml", ".yml"} {
		direct := filepath.Join(dir, name+ext)
		if info, err := os.Stat(direct); err == nil && !info.IsDir() {
			return direct, nil
		}
	}

	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fs.SkipDir
			}
			return err
		}
		if !d.IsDir() && targets[d.Name()] {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("workflow: searching %s: %w", dir, err)
	}
	return found, nil
}

// MapLoader serves definitions from memory.
type MapLoader struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewMapLoader creates a loader holding defs, keyed by their names.
func NewMapLoader(defs ...*Definition) *MapLoader {
	l := &MapLoader{defs: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		l.Add(d)
	}
	return l
}

// Add stores def under its name, replacing any previous one.
func (l *MapLoader) Add(def *Definition) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.defs[def.Name] = def
}

// Load returns the stored definition.
func (l *MapLoader) Load(name string) (*Definition, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	def, ok := l.defs[name]
	if !ok {
		return nil, fmt.Errorf("workflow: definition %q not found", name)
	}
	return def, nil
}
