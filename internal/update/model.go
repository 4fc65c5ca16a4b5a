// Package update is the terminal chat front end: a bubbletea model that sends
// each typed line to a session and shows replies and reminders in a transcript.
package update

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/frogbot/internal/session"
	"github.com/sandeepkv93/frogbot/internal/views"
)

const (
	maxTranscript = 500
	chromeHeight  = 8
)

// Chat answers one line of input for a session.
type Chat interface {
	Handle(ctx context.Context, sessionID, input string) session.Reply
}

type StatusBar struct {
	Text    string
	IsError bool
}

type keyMap struct {
	Send     key.Binding
	ScrollUp key.Binding
	ScrollDn key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Send, k.ScrollUp, k.ScrollDn}, {k.Help, k.Quit}}
}

func defaultKeys() keyMap {
	return keyMap{
		Send:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		ScrollUp: key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDn: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Help:     key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "toggle help")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

type Model struct {
	SessionID   string
	Transcript  []string
	Status      StatusBar
	HelpVisible bool
	Quitting    bool

	chat       Chat
	deliveries <-chan DeliveryMsg
	keys       keyMap
	input      textinput.Model
	viewport   viewport.Model
	helpModel  help.Model
}

func NewModel(chat Chat, sessionID string, deliveries <-chan DeliveryMsg) Model {
	m := Model{
		SessionID:  sessionID,
		chat:       chat,
		deliveries: deliveries,
		keys:       defaultKeys(),
	}
	m.input = textinput.New()
	m.input.Prompt = "> "
	m.input.Placeholder = "type /help or /new"
	m.input.CharLimit = 256
	m.input.Focus()
	m.helpModel = help.New()
	m.viewport = viewport.New(80, 16)
	m.appendLine(views.SpeakerBot, "Hi! I'm the frog bot. Eat the hardest task first. Type /help to see what I can do.")
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForDeliveryCmd(m.deliveries))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = typed.Width - 4
		m.viewport.Height = max(typed.Height-chromeHeight, 3)
		m.input.Width = typed.Width - 8
		m.refreshViewport()
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(typed, m.keys.Quit):
			m.Quitting = true
			return m, tea.Quit
		case key.Matches(typed, m.keys.Help):
			m.HelpVisible = !m.HelpVisible
			return m, nil
		case key.Matches(typed, m.keys.ScrollUp), key.Matches(typed, m.keys.ScrollDn):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(typed)
			return m, cmd
		case key.Matches(typed, m.keys.Send):
			m.submit(m.input.Value())
			m.input.Reset()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(typed)
		return m, cmd
	case DeliveryMsg:
		if typed.SessionID == m.SessionID {
			m.appendLine(views.SpeakerReminder, typed.Text)
			m.Status = StatusBar{Text: "reminder received"}
		}
		return m, waitForDeliveryCmd(m.deliveries)
	}
	return m, nil
}

func (m Model) View() string {
	footer := fmt.Sprintf("session %s", shortID(m.SessionID))
	if m.HelpVisible {
		m.helpModel.ShowAll = true
	}
	footer += " | " + m.helpModel.View(m.keys)
	return views.RenderChat(views.ChatData{
		Header:     "frogbot | eat the frog",
		Transcript: m.viewport.View(),
		Input:      m.input.View(),
		StatusLine: m.Status.Text,
		IsError:    m.Status.IsError,
		Footer:     footer,
	})
}

func (m *Model) submit(raw string) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return
	}
	m.appendLine(views.SpeakerUser, text)
	reply := m.chat.Handle(context.Background(), m.SessionID, text)
	if reply.Text == "" {
		return
	}
	body := reply.Text
	if reply.Markdown {
		body = views.RenderMarkdown(reply.Text)
	}
	m.appendLine(views.SpeakerBot, body)
	if reply.IsError {
		m.Status = StatusBar{Text: firstLine(reply.Text), IsError: true}
	} else {
		m.Status = StatusBar{}
	}
}

func (m *Model) appendLine(who views.Speaker, text string) {
	m.Transcript = append(m.Transcript, views.RenderLine(who, text))
	if len(m.Transcript) > maxTranscript {
		m.Transcript = m.Transcript[len(m.Transcript)-maxTranscript:]
	}
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(strings.Join(m.Transcript, "\n"))
	m.viewport.GotoBottom()
}

func waitForDeliveryCmd(ch <-chan DeliveryMsg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
