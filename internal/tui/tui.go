// Package tui is the Bubble Tea console for playing at a local table.
package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/ledger"
	"github.com/lox/blackjack/internal/round"
	"github.com/lox/blackjack/internal/session"
	"github.com/lox/blackjack/internal/table"
)

// Mode is what the input line is currently asking for
type Mode int

const (
	ModeMenu Mode = iota
	ModeBet
	ModeAction
)

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case ModeMenu:
		return "menu"
	case ModeBet:
		return "bet"
	case ModeAction:
		return "action"
	default:
		return "unknown"
	}
}

// actionKeys maps the numbered prompt to player actions
var actionKeys = map[string]round.Action{
	"1": round.Hit,
	"2": round.Stand,
	"3": round.Double,
	"4": round.Surrender,
	"5": round.Insurance,
}

// logLineMsg carries a formatted round event into the model
type logLineMsg string

// refreshMsg reports that the table changed outside of Update, after a turn timeout
type refreshMsg struct{}

// Model is the Bubble Tea model for a console blackjack session
type Model struct {
	session   *session.Session
	formatter game.EventFormatter
	logger    *log.Logger
	updates   chan tea.Msg

	// UI components
	logViewport viewport.Model
	input       textinput.Model

	mode     Mode
	view     table.View
	gameLog  []string
	quitting bool

	// Dimensions
	width  int
	height int
}

// New creates a console model playing at s
func New(s *session.Session, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 20
	ti.Width = 40
	ti.PromptStyle = inputPromptStyle
	ti.TextStyle = inputTextStyle
	ti.Prompt = "> "

	m := &Model{
		session:     s,
		logger:      logger.WithPrefix("tui"),
		updates:     make(chan tea.Msg, 256),
		logViewport: vp,
		input:       ti,
	}
	m.view = s.View()
	m.formatter = game.EventFormatter{Names: make(map[game.PlayerID]string)}
	for _, seat := range m.view.Seats {
		m.formatter.Names[seat.Player.ID] = seat.Player.Name
	}
	s.Subscribe(game.EventFunc(m.onEvent))

	m.AddLogEntry(TitleStyle.Render(" Blackjack ") + " " + InfoStyle.Render(s.Rules().Name))
	m.setMode(ModeMenu)
	return m
}

// OnChange is passed to the session so turn timeouts redraw the table
func (m *Model) OnChange() {
	m.post(refreshMsg{})
}

// onEvent may run on the timer goroutine, so lines go through the channel
func (m *Model) onEvent(e game.GameEvent) {
	if line := m.formatter.Format(e); line != "" {
		m.post(logLineMsg(line))
	}
}

func (m *Model) post(msg tea.Msg) {
	select {
	case m.updates <- msg:
	default:
		m.logger.Warn("Dropping console update, buffer full")
	}
}

// listen returns a command that waits for the next update from the table
func (m *Model) listen() tea.Cmd {
	return func() tea.Msg {
		return <-m.updates
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listen())
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case logLineMsg:
		for _, line := range strings.Split(string(msg), "\n") {
			m.AddLogEntry(line)
		}
		return m, m.listen()

	case refreshMsg:
		m.refresh()
		return m, m.listen()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "up", "pgup":
			m.logViewport.HalfPageUp()
			return m, nil
		case "down", "pgdown":
			m.logViewport.HalfPageDown()
			return m, nil
		case "enter":
			value := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if cmd := m.Submit(value); cmd != nil {
				return m, cmd
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// Submit handles one line typed at the prompt
func (m *Model) Submit(value string) tea.Cmd {
	m.logger.Debug("Input", "mode", m.mode, "value", value)

	switch m.mode {
	case ModeMenu:
		switch value {
		case "1":
			if m.view.State == round.Finished {
				if err := m.session.NewRound(); err != nil {
					m.addError(err)
					return nil
				}
			}
			m.setMode(ModeBet)
		case "2":
			stats := m.session.Statistics()
			for _, line := range strings.Split(stats.Summary(), "\n") {
				m.AddLogEntry(InfoStyle.Render(line))
			}
		case "3", "q", "quit":
			m.quitting = true
			return tea.Sequence(tea.ClearScreen, tea.Quit)
		default:
			m.AddLogEntry(WarningStyle.Render("Choose 1, 2 or 3"))
		}

	case ModeBet:
		seat, _ := m.view.Seat(session.Human)
		amount := ledger.ParseBet(value, m.session.Rules(), seat.Balance)
		if err := m.session.Bet(amount); err != nil {
			m.addError(err)
			m.setMode(ModeMenu)
			return nil
		}
		m.afterMove()

	case ModeAction:
		a, ok := actionKeys[value]
		if !ok {
			parsed, err := round.ParseAction(value)
			if err != nil || !parsed.IsPlayerAction() {
				m.AddLogEntry(WarningStyle.Render("Choose " + m.actionPrompt()))
				return nil
			}
			a = parsed
		}
		if err := m.session.Act(a); err != nil {
			m.addError(err)
		}
		m.afterMove()
	}
	return nil
}

// afterMove picks the next mode once the player has bet or acted
func (m *Model) afterMove() {
	m.refresh()
	if m.mode == ModeBet {
		m.setMode(ModeMenu)
	}
}

// refresh reloads the table view and leaves action mode once the player's
// turn is over
func (m *Model) refresh() {
	m.view = m.session.View()
	switch {
	case m.myTurn():
		m.setMode(ModeAction)
	case m.mode == ModeAction:
		m.setMode(ModeMenu)
	}
}

func (m *Model) myTurn() bool {
	return m.view.State == round.PlayerTurn && m.view.HasTurn && m.view.Turn == session.Human
}

func (m *Model) setMode(mode Mode) {
	m.mode = mode
	switch mode {
	case ModeMenu:
		m.input.Placeholder = "1 play hand, 2 view stats, 3 quit"
	case ModeBet:
		m.input.Placeholder = fmt.Sprintf("Bet (Enter for $%.2f)", m.session.Rules().DefaultBet)
	case ModeAction:
		m.input.Placeholder = m.actionPrompt()
	}
}

func (m *Model) actionPrompt() string {
	var parts []string
	for _, key := range []string{"1", "2", "3", "4", "5"} {
		a := actionKeys[key]
		if m.canAct(a) {
			parts = append(parts, key+" "+string(a))
		}
	}
	return strings.Join(parts, ", ")
}

func (m *Model) canAct(a round.Action) bool {
	return slices.Contains(m.view.Legal, a)
}

func (m *Model) addError(err error) {
	m.AddLogEntry(ErrorStyle.Render(err.Error()))
}

// Mode returns what the prompt is asking for
func (m *Model) Mode() Mode {
	return m.mode
}

// Log returns a copy of the log lines
func (m *Model) Log() []string {
	return append([]string(nil), m.gameLog...)
}

// AddLogEntry adds an entry to the game log
func (m *Model) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// View renders the console
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionPane := paneStyle.BorderForeground(accent).
		Width(max(m.width-2, 1)).
		Render(actionContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 28)
	paneHeight := max(m.height-actionHeight-4, 1)

	sidebarPane := paneStyle.
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	m.logViewport.Width = max(m.width-sidebarWidth-4, 1)
	m.logViewport.Height = paneHeight
	logPane := paneStyle.
		Width(m.logViewport.Width).
		Height(paneHeight).
		Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

// renderSidebarPane shows the dealer and every seat at the table
func (m *Model) renderSidebarPane() string {
	var content strings.Builder

	content.WriteString(WarningStyle.Render(fmt.Sprintf("Round %d", m.view.Round.Number)))
	content.WriteString(InfoStyle.Render(" " + m.view.State.String()))
	content.WriteString("\n\n")

	dealer := FormatCards(m.view.Dealer)
	if m.view.DealerHidden {
		dealer += " " + HoleCardStyle.Render("??")
	}
	content.WriteString(SeatStyle.Render("Dealer"))
	if len(m.view.Dealer) > 0 {
		content.WriteString(fmt.Sprintf(" %s (%d)", dealer, m.view.DealerTotal))
	}
	content.WriteString("\n\n")

	for _, seat := range m.view.Seats {
		name := seat.Player.Name
		if m.view.HasTurn && seat.Player.ID == m.view.Turn {
			name = "> " + name
		}
		content.WriteString(SeatStyle.Render(name))
		content.WriteString(InfoStyle.Render(fmt.Sprintf(" $%.2f", seat.Balance)))
		content.WriteString("\n")
		if len(seat.Cards) > 0 {
			content.WriteString(fmt.Sprintf("  %s (%d) %s\n", FormatCards(seat.Cards), seat.Total, seat.Status))
		}
	}
	return content.String()
}

// renderActionPane shows the prompt for the current mode
func (m *Model) renderActionPane() string {
	var content strings.Builder

	switch m.mode {
	case ModeMenu:
		content.WriteString(PromptStyle.Render("1 play hand  2 view stats  3 quit"))
	case ModeBet:
		seat, _ := m.view.Seat(session.Human)
		content.WriteString(PromptStyle.Render(fmt.Sprintf("Place your bet (balance $%.2f)", seat.Balance)))
	case ModeAction:
		if seat, ok := m.view.Seat(session.Human); ok {
			content.WriteString(SeatStyle.Render(fmt.Sprintf("Hand: %s (%d)  Stake: $%.2f",
				FormatCards(seat.Cards), seat.Total, seat.Stake)))
			content.WriteString("\n")
		}
		content.WriteString(PromptStyle.Render("Actions: " + m.actionPrompt()))
	}
	content.WriteString("\n")
	content.WriteString(m.input.View())
	content.WriteString("\n")
	content.WriteString(InfoStyle.Render("↑↓ scroll log • Enter to submit • Ctrl+C to quit"))
	return content.String()
}

// FormatCards formats cards with colors
func FormatCards(cards []deck.Card) string {
	if len(cards) == 0 {
		return ""
	}

	formatted := make([]string, len(cards))
	for i, card := range cards {
		if card.IsRed() {
			formatted[i] = RedCardStyle.Render(card.String())
		} else {
			formatted[i] = BlackCardStyle.Render(card.String())
		}
	}
	return "[" + strings.Join(formatted, " ") + "]"
}

// Run takes over the terminal until the player quits
func (m *Model) Run() error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
