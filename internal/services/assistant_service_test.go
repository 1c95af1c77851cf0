package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"momentum/internal/models"
)

func TestConversationTitle(t *testing.T) {
	if got := conversationTitle("  Plan the sprint  "); got != "Plan the sprint" {
		t.Errorf("title = %q", got)
	}

	long := strings.Repeat("a", 100)
	got := conversationTitle(long)
	if len(got) > 70 {
		t.Errorf("long title not truncated: %d bytes", len(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated title should end with ellipsis: %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate below max = %q", got)
	}
	if got := truncate("exactly-10", 10); got != "exactly-10" {
		t.Errorf("truncate at max = %q", got)
	}
	got := truncate("0123456789abc", 10)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated string = %q", got)
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	got := truncate(strings.Repeat("日", 40), 16)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 16 {
		t.Errorf("rune count = %d, want 16", n)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated string = %q", got)
	}
}

func TestLocalReplyQuotesLastUserMessage(t *testing.T) {
	history := []models.AssistantMessage{
		{Role: models.MessageRoleUser, Content: "How do I prioritize?"},
		{Role: models.MessageRoleAssistant, Content: "Start with due dates."},
		{Role: models.MessageRoleUser, Content: "What about the backlog?"},
	}
	reply := localReply(history)
	if !strings.Contains(reply, "What about the backlog?") {
		t.Errorf("fallback reply should quote the last user message: %q", reply)
	}
}

func TestRenderMarkdown(t *testing.T) {
	html, err := RenderMarkdown("**bold** and a [link](https://example.com)")
	if err != nil {
		t.Fatalf("failed to render: %v", err)
	}
	if !strings.Contains(html, "<strong>bold</strong>") {
		t.Errorf("bold not rendered: %q", html)
	}
	if !strings.Contains(html, `<a href="https://example.com"`) {
		t.Errorf("link not rendered: %q", html)
	}

	// GFM tables are part of task descriptions.
	html, err = RenderMarkdown("| a | b |\n|---|---|\n| 1 | 2 |")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "<table>") {
		t.Errorf("table not rendered: %q", html)
	}
}
