package services

import (
	"strings"
	"testing"
	"time"

	"momentum/internal/models"
)

func TestSheetName(t *testing.T) {
	tests := []struct {
		name  string
		index int
		want  string
	}{
		{"To Do", 0, "To Do"},
		{"Bugs / Regressions", 1, "Bugs   Regressions"},
		{"Q1: [urgent]*?", 0, "Q1   urgent"},
		{"", 2, "Group 3"},
		{"   ", 0, "Group 1"},
	}
	for _, tc := range tests {
		if got := sheetName(tc.name, tc.index); got != tc.want {
			t.Errorf("sheetName(%q, %d) = %q, want %q", tc.name, tc.index, got, tc.want)
		}
	}

	long := sheetName(strings.Repeat("x", 50), 0)
	if len(long) != 31 {
		t.Errorf("long sheet name length = %d, want 31", len(long))
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Website Redesign", "website-redesign"},
		{"Q1 2026 Launch!", "q1-2026-launch"},
		{"___", "---"},
		{"!!!", "board"},
	}
	for _, tc := range tests {
		if got := slugify(tc.in); got != tc.want {
			t.Errorf("slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatDue(t *testing.T) {
	if got := formatDue(nil, false); got != "" {
		t.Errorf("nil due = %q, want empty", got)
	}

	due := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	if got := formatDue(&due, false); got != "2026-03-14" {
		t.Errorf("date-only due = %q", got)
	}
	if got := formatDue(&due, true); got != "2026-03-14 09:30" {
		t.Errorf("timed due = %q", got)
	}
}

func TestLabelNames(t *testing.T) {
	labels := []models.Label{
		{Name: "frontend", Color: "#ff0000"},
		{Name: "urgent", Color: "#00ff00"},
	}
	if got := labelNames(labels); got != "frontend, urgent" {
		t.Errorf("labelNames = %q", got)
	}
	if got := labelNames(nil); got != "" {
		t.Errorf("labelNames(nil) = %q", got)
	}
}
