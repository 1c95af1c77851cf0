package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTemplateStoreMissingFile(t *testing.T) {
	s, err := NewTemplateStore(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}

	cols := s.DefaultColumns()
	want := []string{"To Do", "In Progress", "Done"}
	if len(cols) != len(want) {
		t.Fatalf("default columns = %v, want %v", cols, want)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Fatalf("default columns = %v, want %v", cols, want)
		}
	}
}

func TestTemplateStoreLoadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board-templates.yaml")
	content := `default: sprint
templates:
  - name: sprint
    columns: ["Backlog", "Doing", "Review", "Shipped"]
  - name: simple
    columns: ["Todo", "Done"]
  - name: broken
    columns: []
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewTemplateStore(path)
	if err != nil {
		t.Fatalf("failed to load templates: %v", err)
	}

	cols := s.DefaultColumns()
	if len(cols) != 4 || cols[0] != "Backlog" || cols[3] != "Shipped" {
		t.Errorf("default template columns = %v", cols)
	}

	simple := s.Columns("simple")
	if len(simple) != 2 || simple[1] != "Done" {
		t.Errorf("simple template columns = %v", simple)
	}

	// Unknown and empty names fall back to the default template.
	if got := s.Columns("missing"); len(got) != 4 {
		t.Errorf("unknown template should fall back, got %v", got)
	}
	if got := s.Columns(""); len(got) != 4 {
		t.Errorf("empty template name should fall back, got %v", got)
	}

	// Templates without columns are dropped at load time.
	if got := s.Columns("broken"); len(got) != 4 {
		t.Errorf("empty-column template should fall back, got %v", got)
	}
}

func TestTemplateStoreInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("{not yaml: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewTemplateStore(path); err == nil {
		t.Fatal("expected parse error for invalid YAML")
	}
}
