package display

import (
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jetsetgo/sidekick-setup/internal/config"
)

// Display shows a short status message on the device
type Display interface {
	Type() string
	Show(lines []string) error
	Close() error
}

// New creates the display described by cfg
func New(cfg config.DisplayConfig, console io.Writer) (Display, error) {
	switch cfg.Type {
	case "console":
		return NewConsoleDisplay(console), nil
	case "network":
		if cfg.Address == "" || cfg.Port == 0 {
			return nil, fmt.Errorf("network display needs address and port")
		}
		return NewNetworkDisplay(cfg.Address, cfg.Port), nil
	case "none":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown display type %q", cfg.Type)
	}
}

// CompletionLines is what the device shows once setup has been saved
func CompletionLines(sidekickName string) []string {
	lines := []string{"Setup Complete!"}
	if sidekickName != "" {
		lines = append(lines, "Hi from "+sidekickName)
	}
	return lines
}

// ConsoleDisplay writes messages to a writer, framed like a small screen
type ConsoleDisplay struct {
	w  io.Writer
	mu sync.Mutex
}

// NewConsoleDisplay creates a console display
func NewConsoleDisplay(w io.Writer) *ConsoleDisplay {
	return &ConsoleDisplay{w: w}
}

// Type returns the display type
func (d *ConsoleDisplay) Type() string {
	return "console"
}

// Show writes lines inside a frame
func (d *ConsoleDisplay) Show(lines []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Widths are terminal cells, so wide runes keep the frame aligned
	width := 0
	for _, l := range lines {
		width = max(width, lipgloss.Width(l))
	}
	border := "+" + strings.Repeat("-", width+2) + "+\n"

	var b strings.Builder
	b.WriteString(border)
	for _, l := range lines {
		fmt.Fprintf(&b, "| %s%s |\n", l, strings.Repeat(" ", width-lipgloss.Width(l)))
	}
	b.WriteString(border)

	_, err := io.WriteString(d.w, b.String())
	return err
}

// Close is a no-op
func (d *ConsoleDisplay) Close() error {
	return nil
}

// NetworkDisplay sends plain text lines to a remote panel over TCP
type NetworkDisplay struct {
	address string
	port    int
	mu      sync.Mutex
}

// NewNetworkDisplay creates a new network display
func NewNetworkDisplay(address string, port int) *NetworkDisplay {
	return &NetworkDisplay{
		address: address,
		port:    port,
	}
}

// Type returns the display type
func (d *NetworkDisplay) Type() string {
	return "network"
}

// Show dials the panel and writes one line per entry
func (d *NetworkDisplay) Show(lines []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	addr := net.JoinHostPort(d.address, fmt.Sprint(d.port))

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to display: %w", err)
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))

	_, err = io.WriteString(conn, strings.Join(lines, "\n")+"\n")
	if err != nil {
		return fmt.Errorf("failed to send data to display: %w", err)
	}

	return nil
}

// Close is a no-op; connections are per message
func (d *NetworkDisplay) Close() error {
	return nil
}

// Nop discards messages
type Nop struct{}

// Type returns the display type
func (Nop) Type() string { return "none" }

// Show does nothing
func (Nop) Show([]string) error { return nil }

// Close does nothing
func (Nop) Close() error { return nil }
