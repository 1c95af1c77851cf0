package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// BoardTemplate defines the default columns new projects start with.
type BoardTemplate struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
}

// boardTemplatesFile is the on-disk shape of the templates file.
type boardTemplatesFile struct {
	Default   string          `yaml:"default"`
	Templates []BoardTemplate `yaml:"templates"`
}

// DefaultBoardColumns is used when no templates file is configured.
var DefaultBoardColumns = []string{"To Do", "In Progress", "Done"}

// TemplateStore holds board templates and supports hot reload when the
// underlying file changes.
type TemplateStore struct {
	mu        sync.RWMutex
	path      string
	defName   string
	templates map[string]BoardTemplate
	watcher   *fsnotify.Watcher
}

// NewTemplateStore loads templates from path. A missing file is not an
// error: the built-in default template is used.
func NewTemplateStore(path string) (*TemplateStore, error) {
	s := &TemplateStore{
		path:      path,
		templates: map[string]BoardTemplate{},
	}
	if err := s.reload(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		log.Printf("⚠️  Board templates file %s not found, using built-in defaults", path)
	}
	return s, nil
}

func (s *TemplateStore) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var file boardTemplatesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse board templates: %w", err)
	}

	templates := make(map[string]BoardTemplate, len(file.Templates))
	for _, t := range file.Templates {
		if t.Name == "" || len(t.Columns) == 0 {
			continue
		}
		templates[t.Name] = t
	}

	s.mu.Lock()
	s.defName = file.Default
	s.templates = templates
	s.mu.Unlock()

	log.Printf("✅ Loaded %d board templates from %s", len(templates), s.path)
	return nil
}

// DefaultColumns returns the column names for the default template.
func (s *TemplateStore) DefaultColumns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.templates[s.defName]; ok {
		out := make([]string, len(t.Columns))
		copy(out, t.Columns)
		return out
	}
	out := make([]string, len(DefaultBoardColumns))
	copy(out, DefaultBoardColumns)
	return out
}

// Columns returns the column names for a named template, falling back to the
// default template when the name is unknown or empty.
func (s *TemplateStore) Columns(name string) []string {
	if name == "" {
		return s.DefaultColumns()
	}
	s.mu.RLock()
	t, ok := s.templates[name]
	s.mu.RUnlock()
	if !ok {
		return s.DefaultColumns()
	}
	out := make([]string, len(t.Columns))
	copy(out, t.Columns)
	return out
}

// Watch reloads the templates file whenever it changes. Call Close to stop.
func (s *TemplateStore) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	s.watcher = watcher

	// Watch the directory: editors replace files on save, which would
	// otherwise drop the watch on the inode.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := s.reload(); err != nil {
					log.Printf("⚠️  Failed to reload board templates: %v", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("⚠️  Board template watcher error: %v", err)
			}
		}
	}()

	log.Printf("👀 Watching %s for board template changes", s.path)
	return nil
}

// Close stops the file watcher.
func (s *TemplateStore) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
