// Package clientui is the interactive Bubble Tea front end for
// cmd/mpp-client: it reads a noun per line, sends an ISSING request for
// it over a persistent TCP connection, and renders the reply alongside
// its round-trip time. Styled after mickamy-sql-tap's tui.Model: a
// single struct carrying both connection and view state, driven by
// typed tea.Msg values and manual rune-buffer editing rather than a
// third-party text-input widget.
package clientui

import (
	"fmt"
	"net"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/victorcarri/mpp/protocol"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// exchange is one completed request/reply round trip, kept for the
// scrollback the View renders.
type exchange struct {
	noun    string
	reply   *protocol.Reply
	err     error
	rtt     time.Duration
}

// Model is the Bubble Tea model for mpp-client.
type Model struct {
	address string
	conn    net.Conn

	history []exchange
	input   []rune
	cursor  int

	retried bool
	err     error
	width   int
}

// New builds a Model that will dial address once started.
func New(address string) Model {
	return Model{address: address}
}

type connectedMsg struct{ conn net.Conn }
type connectErrMsg struct{ err error }
type replyMsg struct{ ex exchange }

func (m Model) Init() tea.Cmd {
	return dial(m.address)
}

func dial(address string) tea.Cmd {
	return func() tea.Msg {
		conn, err := net.DialTimeout("tcp", address, 5*time.Second)
		if err != nil {
			return connectErrMsg{err: err}
		}
		return connectedMsg{conn: conn}
	}
}

// sendISSING performs one full request/reply cycle for noun over conn
// and reports elapsed wall time, per spec.md's client RTT requirement.
func sendISSING(conn net.Conn, noun string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		req := protocol.NewRequest()
		req.Version = protocol.CurrentVersion
		req.Command = protocol.ISSING
		req.Noun = []byte(noun)

		buffers := net.Buffers(protocol.EncodeRequest(req))
		if _, err := buffers.WriteTo(conn); err != nil {
			return replyMsg{ex: exchange{noun: noun, err: err}}
		}

		rep := &protocol.Reply{}
		parser := protocol.NewReplyParser(rep)
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				outcome, _ := parser.ConsumeBytes(buf[:n])
				if outcome == protocol.Done {
					return replyMsg{ex: exchange{noun: noun, reply: rep, rtt: time.Since(start)}}
				}
				if outcome == protocol.Malformed {
					return replyMsg{ex: exchange{noun: noun, err: fmt.Errorf("malformed reply from server")}}
				}
			}
			if err != nil {
				return replyMsg{ex: exchange{noun: noun, err: err}}
			}
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case connectedMsg:
		m.conn = msg.conn
		m.err = nil
		return m, nil

	case connectErrMsg:
		if !m.retried {
			m.retried = true
			return m, dial(m.address)
		}
		m.err = msg.err
		return m, nil

	case replyMsg:
		m.history = append(m.history, msg.ex)
		if msg.ex.err != nil && !m.retried {
			// One reconnect attempt on I/O error, per spec.md's client
			// resilience note.
			m.retried = true
			if m.conn != nil {
				_ = m.conn.Close()
			}
			return m, dial(m.address)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "ctrl+d":
		if m.conn != nil {
			_ = m.conn.Close()
		}
		return m, tea.Quit

	case "enter":
		noun := strings.TrimSpace(string(m.input))
		m.input = nil
		m.cursor = 0
		if noun == "" {
			return m, nil
		}
		if strings.EqualFold(noun, "quit") || strings.EqualFold(noun, "exit") {
			if m.conn != nil {
				_ = m.conn.Close()
			}
			return m, tea.Quit
		}
		if m.conn == nil {
			m.history = append(m.history, exchange{noun: noun, err: fmt.Errorf("not connected")})
			return m, nil
		}
		return m, sendISSING(m.conn, noun)

	case "backspace":
		if m.cursor > 0 {
			m.input = append(m.input[:m.cursor-1], m.input[m.cursor:]...)
			m.cursor--
		}
		return m, nil

	case "left":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "right":
		if m.cursor < len(m.input) {
			m.cursor++
		}
		return m, nil
	}

	if len(msg.Runes) == 0 {
		return m, nil
	}
	m.input = append(m.input[:m.cursor], append(append([]rune{}, msg.Runes...), m.input[m.cursor:]...)...)
	m.cursor += len(msg.Runes)
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	for _, ex := range m.history {
		b.WriteString(promptStyle.Render("> " + ex.noun))
		b.WriteByte('\n')
		if ex.err != nil {
			b.WriteString(errStyle.Render("  error: " + ex.err.Error()))
		} else {
			b.WriteString(okStyle.Render(fmt.Sprintf("  %s %s", ex.reply.Status.Reason(), string(ex.reply.Content))))
			b.WriteString(dimStyle.Render(fmt.Sprintf("  (%s)", ex.rtt)))
		}
		b.WriteByte('\n')
	}
	if m.err != nil {
		b.WriteString(errStyle.Render("connection failed: " + m.err.Error()))
		b.WriteByte('\n')
	}
	b.WriteString(promptStyle.Render("noun> "))
	b.WriteString(string(m.input[:m.cursor]))
	b.WriteString(string(m.input[m.cursor:]))
	b.WriteString(dimStyle.Render("  (type 'quit' or 'exit' to leave)"))
	return b.String()
}
