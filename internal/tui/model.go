package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"document-qa/internal/models"
)

// Asker is the chat-facing subset of the question-answering service.
type Asker interface {
	Ask(ctx context.Context, question string) (*models.Answer, error)
}

type answerMsg struct {
	answer *models.Answer
	err    error
}

// Model is the Bubble Tea model for the terminal chat.
type Model struct {
	ctx         context.Context
	asker       Asker
	input       textinput.Model
	viewport    viewport.Model
	answer      *models.Answer
	summary     string
	status      string
	busy        bool
	showContext bool
	ready       bool
}

func New(ctx context.Context, asker Asker, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Nhập câu hỏi và nhấn Enter"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		ctx:      ctx,
		asker:    asker,
		input:    ti,
		viewport: viewport.New(0, 0),
		summary:  summary,
		status:   "Enter: hỏi · Tab: đổi câu trả lời/ngữ cảnh · Ctrl+C: thoát",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.asker.Ask(m.ctx, question)
		return answerMsg{answer: answer, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := bodyBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header+summary, status, input box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.viewport.SetContent(m.renderBody())
		return m, nil

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Lỗi: " + msg.err.Error()
		} else {
			m.answer = msg.answer
			m.showContext = false
			m.status = fmt.Sprintf("Đã trả lời %q (%d đoạn ngữ cảnh)", msg.answer.Question, len(msg.answer.Context))
		}
		m.viewport.SetContent(m.renderBody())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.Type {
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Đang tìm câu trả lời..."
			m.input.SetValue("")
			return m, m.ask(q)
		case tea.KeyTab:
			if m.answer != nil {
				m.showContext = !m.showContext
				m.viewport.SetContent(m.renderBody())
				m.viewport.GotoTop()
			}
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Hỏi đáp tài liệu")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	body := bodyBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + summary + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) renderBody() string {
	if m.answer == nil {
		return "Chưa có câu hỏi."
	}
	if !m.showContext {
		return titleStyle.Render("Câu trả lời") + "\n\n" + m.answer.Content + renderRelated(m.answer.RelatedQuestions)
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Ngữ cảnh"))
	for i, c := range m.answer.Context {
		fmt.Fprintf(&b, "\n\n%s %s", refStyle.Render(fmt.Sprintf("[%d]", i+1)), c)
	}
	return b.String()
}

func renderRelated(questions []string) string {
	if len(questions) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n" + titleStyle.Render("Câu hỏi liên quan"))
	for _, q := range questions {
		b.WriteString("\n• " + q)
	}
	return b.String()
}

var (
	bodyBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	refStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)
