package term

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"parley/internal/domain"
)

var (
	receivedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	warningStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	statusStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
)

// Display writes styled session output and keeps the input prompt visible
// after every line. Safe for use from multiple goroutines.
type Display struct {
	mu  sync.Mutex
	out io.Writer
}

// NewDisplay renders to out, usually os.Stdout.
func NewDisplay(out io.Writer) *Display {
	return &Display{out: out}
}

// Message prints a decrypted chat message from the peer.
func (d *Display) Message(from domain.Identity, text string) {
	d.printLine(receivedStyle.Render("RECEIVED:") + " " + text)
}

// Status prints a lifecycle notice.
func (d *Display) Status(text string) {
	d.printLine(statusStyle.Render("STATUS:") + " " + text)
}

// Alert prints a recoverable protocol warning.
func (d *Display) Alert(text string) {
	d.printLine(warningStyle.Render("WARNING:") + " " + text)
}

// Prompt re-prints the input prompt.
func (d *Display) Prompt() {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprint(d.out, "> ")
}

func (d *Display) printLine(line string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.out, line)
	fmt.Fprint(d.out, "> ")
}

var _ domain.Display = (*Display)(nil)
