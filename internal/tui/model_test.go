package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"document-qa/internal/models"
)

type fakeAsker struct {
	questions []string
	err       error
}

func (f *fakeAsker) Ask(_ context.Context, q string) (*models.Answer, error) {
	f.questions = append(f.questions, q)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Answer{
		Question: q,
		Context:  []string{"Mục tiêu: ABC", "Giải pháp: XYZ"},
		Content:  "Mục tiêu là ABC [1]",
	}, nil
}

func sized(m tea.Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func TestAskFlow(t *testing.T) {
	asker := &fakeAsker{}
	m := sized(New(context.Background(), asker, "2 tài liệu"))
	m.input.SetValue("  Mục tiêu là gì?  ")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if cmd == nil || !m.busy {
		t.Fatal("expected an ask command")
	}
	if m.input.Value() != "" {
		t.Fatalf("input not cleared: %q", m.input.Value())
	}

	next, _ = m.Update(cmd())
	m = next.(Model)
	if len(asker.questions) != 1 || asker.questions[0] != "Mục tiêu là gì?" {
		t.Fatalf("questions = %q", asker.questions)
	}
	if m.busy || !strings.Contains(m.View(), "Mục tiêu là ABC [1]") {
		t.Fatalf("answer not shown:\n%s", m.View())
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	if !strings.Contains(m.renderBody(), "Giải pháp: XYZ") {
		t.Fatalf("context not shown:\n%s", m.renderBody())
	}
}

func TestAskError(t *testing.T) {
	m := sized(New(context.Background(), &fakeAsker{err: errors.New("db locked")}, ""))
	m.input.SetValue("q")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next, _ = next.(Model).Update(cmd())
	if got := next.(Model).status; !strings.Contains(got, "db locked") {
		t.Fatalf("status = %q", got)
	}
}

func TestEmptyInputDoesNothing(t *testing.T) {
	asker := &fakeAsker{}
	m := sized(New(context.Background(), asker, ""))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("unexpected command for empty input")
	}
}
