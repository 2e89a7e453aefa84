// Package tui is the terminal chat interface over a chat controller.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"go.uber.org/zap"

	"github.com/SouvikSarkar080505/image-bot/pkg/attach"
	"github.com/SouvikSarkar080505/image-bot/pkg/chat"
)

const (
	headerHeight = 2
	footerHeight = 5
	timeLayout   = "15:04"
)

const helpText = "enter send • /image <path> attach • /clear-image detach • ctrl+c quit"

// settledMsg reports that the in-flight submission has resolved.
type settledMsg struct{}

// selectionMsg carries a file dropped into the watched directory.
type selectionMsg attach.Selection

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx        context.Context
	controller *chat.Controller
	selections <-chan attach.Selection
	logger     *zap.Logger

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	style    string

	snapshot chat.Snapshot
	attached *chat.FileBlob
	warning  string
	dropDir  string

	width  int
	height int
	ready  bool
}

// New returns a Model. watcher may be nil.
func New(ctx context.Context, controller *chat.Controller, watcher *attach.Watcher, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	ta := textarea.New()
	ta.Placeholder = "Ask a question or describe an image..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(1)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	style := "light"
	if termenv.HasDarkBackground() {
		style = "dark"
	}

	m := Model{
		ctx:        ctx,
		controller: controller,
		logger:     logger,
		textarea:   ta,
		spinner:    sp,
		style:      style,
		snapshot:   controller.Snapshot(),
	}
	if watcher != nil {
		m.selections = watcher.Selections()
		m.dropDir = watcher.Dir()
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.listen())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.snapshot.Processing {
				return m, nil
			}
			return m.handleInput()
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		if m.snapshot.Processing {
			return m, nil
		}

	case settledMsg:
		m.snapshot = m.controller.Snapshot()
		m.refresh()
		return m, m.textarea.Focus()

	case selectionMsg:
		m.applySelection(attach.Selection(msg))
		return m, m.listen()

	case spinner.TickMsg:
		if !m.snapshot.Processing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleInput runs a slash command or submits the input to the controller.
func (m Model) handleInput() (tea.Model, tea.Cmd) {
	raw := m.textarea.Value()
	input := strings.TrimSpace(raw)

	switch {
	case input == "/quit" || input == "/exit":
		return m, tea.Quit
	case input == "/clear-image":
		m.attached = nil
		m.warning = ""
		m.textarea.Reset()
		return m, nil
	case input == "/image" || strings.HasPrefix(input, "/image "):
		path := strings.TrimSpace(strings.TrimPrefix(input, "/image"))
		m.textarea.Reset()
		if path == "" {
			m.warning = "usage: /image <path>"
			return m, nil
		}
		blob, err := attach.Open(path)
		m.applySelection(attach.Selection{Path: path, Blob: blob, Err: err})
		return m, nil
	}

	var image chat.Blob
	if m.attached != nil {
		image = m.attached
	}

	done, err := m.controller.Submit(m.ctx, raw, image)
	switch {
	case errors.Is(err, chat.ErrEmptySubmission):
		return m, nil
	case errors.Is(err, chat.ErrBusy):
		m.warning = "still working on the previous message"
		return m, nil
	case err != nil:
		m.warning = err.Error()
		return m, nil
	}

	m.textarea.Reset()
	m.textarea.Blur()
	m.attached = nil
	m.warning = ""
	m.snapshot = m.controller.Snapshot()
	m.refresh()

	return m, tea.Batch(waitSettled(done), m.spinner.Tick)
}

func (m *Model) applySelection(sel attach.Selection) {
	if sel.Err != nil {
		m.logger.Debug("file selection rejected", zap.String("path", sel.Path), zap.Error(sel.Err))
		if attach.IsInvalidFileType(sel.Err) {
			m.warning = attach.RejectionMessage
		} else {
			m.warning = sel.Err.Error()
		}
		return
	}
	m.logger.Debug("image attached", zap.String("path", sel.Blob.Path()), zap.String("mime_type", sel.Blob.MIMEType()))
	m.attached = sel.Blob
	m.warning = ""
}

func waitSettled(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return settledMsg{}
	}
}

// listen waits for the next dropped file.
func (m Model) listen() tea.Cmd {
	if m.selections == nil {
		return nil
	}
	ch := m.selections
	return func() tea.Msg {
		sel, ok := <-ch
		if !ok {
			return nil
		}
		return selectionMsg(sel)
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	vpHeight := max(height-headerHeight-footerHeight, 3)
	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(max(width-2, 10))

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		m.logger.Warn("markdown renderer unavailable", zap.Error(err))
		r = nil
	}
	m.renderer = r
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	var b strings.Builder
	for i, msg := range m.snapshot.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderMessage(msg chat.Message) string {
	var b strings.Builder

	label := botStyle.Render("AI Assistant")
	if msg.Role == chat.RoleUser {
		label = userStyle.Render("You")
	}
	b.WriteString(label + metaStyle.Render(" • "+msg.CreatedAt.Format(timeLayout)) + "\n")

	if msg.Loading {
		b.WriteString(m.spinner.View() + metaStyle.Render(" analyzing..."))
		return b.String()
	}

	for _, p := range msg.Parts {
		switch p.Type {
		case chat.PartText:
			b.WriteString(m.renderText(msg.Role, p.Text))
		case chat.PartImage:
			if p.Image != nil {
				label := fmt.Sprintf("[image: %s] %s", p.Image.Alt, p.Image.URL)
				b.WriteString(imageStyle.Render(m.fit(label)))
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderText renders assistant replies as markdown; user text is shown as typed.
func (m Model) renderText(role chat.Role, text string) string {
	if role != chat.RoleAssistant || m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// fit truncates a single line to the terminal width.
func (m Model) fit(line string) string {
	if m.width <= 0 || ansi.StringWidth(line) <= m.width {
		return line
	}
	return ansi.Truncate(line, m.width, "…")
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Loading..."
	}

	header := titleStyle.Render("Souvchat") + " " + badgeStyle.Render("Beta")

	status := statusStyle.Render(m.fit(helpText))
	switch {
	case m.warning != "":
		status = warningStyle.Render(m.fit(m.warning))
	case m.attached != nil:
		status = imageStyle.Render(m.fit("attached: " + m.attached.Name() + " (" + m.attached.MIMEType() + ")"))
	case m.dropDir != "":
		status = statusStyle.Render(m.fit("drop images into " + m.dropDir + " • " + helpText))
	}

	return strings.Join([]string{
		header,
		"",
		m.viewport.View(),
		"",
		status,
		m.textarea.View(),
	}, "\n")
}

// Run starts the terminal chat and blocks until the user quits.
func Run(ctx context.Context, controller *chat.Controller, watcher *attach.Watcher, logger *zap.Logger) error {
	p := tea.NewProgram(
		New(ctx, controller, watcher, logger),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run terminal chat: %w", err)
	}
	return nil
}
