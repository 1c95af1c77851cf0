package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"momentum/internal/models"

	"github.com/xuri/excelize/v2"
)

// ExportService renders a project board as an .xlsx workbook: one sheet per
// task group, one row per task.
type ExportService struct {
	projects *ProjectService
}

// NewExportService creates a new export service
func NewExportService(projects *ProjectService) *ExportService {
	return &ExportService{projects: projects}
}

var exportHeader = []string{"Task", "Complete", "Priority", "Due date", "Assigned", "Labels", "Created"}

// BoardXLSX builds the workbook and returns its bytes plus a filename.
func (s *ExportService) BoardXLSX(ctx context.Context, project *models.Project) ([]byte, string, error) {
	board, err := s.projects.Board(ctx, project)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, group := range board.Groups {
		sheet := sheetName(group.Name, i)
		if i == 0 {
			// The default sheet gets renamed rather than replaced.
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, "", fmt.Errorf("failed to name sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, "", fmt.Errorf("failed to create sheet: %w", err)
			}
		}

		if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
			return nil, "", fmt.Errorf("failed to write header: %w", err)
		}

		for row, task := range group.Tasks {
			cell, err := excelize.CoordinatesToCellName(1, row+2)
			if err != nil {
				return nil, "", fmt.Errorf("failed to compute cell name: %w", err)
			}
			values := []interface{}{
				task.Name,
				task.Complete,
				task.Priority,
				formatDue(task.DueDate, task.HasTime),
				strings.Join(task.Assigned, ", "),
				labelNames(task.Labels),
				task.CreatedAt.Format("2006-01-02"),
			}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return nil, "", fmt.Errorf("failed to write task row: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to serialize workbook: %w", err)
	}

	filename := fmt.Sprintf("%s-%s.xlsx", slugify(project.Name), time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// sheetName makes a group name safe for Excel: max 31 chars, no reserved
// characters, never empty.
func sheetName(name string, index int) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return ' '
		}
		return r
	}, name)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		cleaned = fmt.Sprintf("Group %d", index+1)
	}
	if len(cleaned) > 31 {
		cleaned = cleaned[:31]
	}
	return cleaned
}

func formatDue(due *time.Time, hasTime bool) string {
	if due == nil {
		return ""
	}
	if hasTime {
		return due.Format("2006-01-02 15:04")
	}
	return due.Format("2006-01-02")
}

func labelNames(labels []models.Label) string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.Name)
	}
	return strings.Join(names, ", ")
}

func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "board"
	}
	return b.String()
}
