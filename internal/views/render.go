package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type ChatData struct {
	Header     string
	Transcript string
	Input      string
	StatusLine string
	IsError    bool
	Footer     string
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	alertStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

func RenderChat(data ChatData) string {
	lines := []string{
		headerStyle.Render(data.Header),
		panelStyle.Render(data.Transcript),
		panelStyle.Render(data.Input),
	}
	if data.StatusLine != "" {
		if data.IsError {
			lines = append(lines, errorStyle.Render(data.StatusLine))
		} else {
			lines = append(lines, statusStyle.Render(data.StatusLine))
		}
	}
	if data.Footer != "" {
		lines = append(lines, footerStyle.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

// Speaker tags a transcript line.
type Speaker int

const (
	SpeakerBot Speaker = iota
	SpeakerUser
	SpeakerReminder
)

func RenderLine(who Speaker, text string) string {
	switch who {
	case SpeakerUser:
		return userStyle.Render("you › " + text)
	case SpeakerReminder:
		return alertStyle.Render("⏰ " + text)
	default:
		return botStyle.Render(text)
	}
}

func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
