package cmd

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/roundtable/internal/config"
	"github.com/Iron-Ham/roundtable/internal/event"
	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	userStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	planStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// defaultPalette cycles through distinguishable terminal colors for
// participants whose config leaves the color blank.
var defaultPalette = []string{"12", "13", "14", "10", "11", "9"}

// participantColors maps each participant name to its display color,
// filling gaps from the default palette.
func participantColors(participants []config.ParticipantConfig) map[string]string {
	colors := make(map[string]string, len(participants))
	for i, p := range participants {
		color := p.Color
		if color == "" {
			color = defaultPalette[i%len(defaultPalette)]
		}
		colors[p.Name] = color
	}
	return colors
}

// subscribeDisplay mirrors session activity to the terminal: routed
// messages in each participant's color, lifecycle changes, and the plan
// announcement.
func subscribeDisplay(bus *event.Bus, colors map[string]string) {
	bus.Subscribe("message.routed", func(e event.Event) {
		me := e.(event.MessageRoutedEvent)
		fmt.Printf("\n%s\n%s\n", renderOrigin(me.Origin, me.Color, colors), strings.TrimSpace(me.Body))
	})

	bus.Subscribe("message.delivery_failed", func(e event.Event) {
		de := e.(event.DeliveryFailedEvent)
		fmt.Printf("%s delivery to %s failed: %s\n", errorStyle.Render("✗"), de.Participant, de.Error)
	})

	bus.Subscribe("participant.status", func(e event.Event) {
		se := e.(event.ParticipantStatusEvent)
		switch se.Status {
		case event.StatusExited:
			fmt.Println(dimStyle.Render(fmt.Sprintf("· %s exited (code %d)", se.Participant, se.ExitCode)))
		case event.StatusRestarting:
			fmt.Println(dimStyle.Render(fmt.Sprintf("· restarting %s (%s)", se.Participant, se.Detail)))
		case event.StatusMaxRetries:
			fmt.Printf("%s %s gave up restarting\n", errorStyle.Render("✗"), se.Participant)
		}
	})

	bus.Subscribe("plan.ready", func(e event.Event) {
		pe := e.(event.PlanReadyEvent)
		fmt.Printf("\n%s %s\n%s\n",
			planStyle.Render("★ Plan ready:"), pe.Path,
			dimStyle.Render("Use /handoff to print the implementer prompt."))
	})
}

// renderOrigin formats a message attribution line in the origin's color.
func renderOrigin(origin, color string, colors map[string]string) string {
	if color == "" {
		color = colors[origin]
	}
	label := fmt.Sprintf("[%s]", origin)
	if color == "" {
		return userStyle.Render(label)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render(label)
}
