package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner is a minimal terminal progress indicator writing to stderr.
type spinner struct {
	message string
	stop    chan struct{}
	stopped chan struct{}
}

// newSpinner creates and starts a spinner with the given message.
func newSpinner(message string) *spinner {
	s := &spinner{
		message: message,
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *spinner) run() {
	defer close(s.stopped)
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			frame := spinnerFrames[i%len(spinnerFrames)]
			fmt.Fprintf(os.Stderr, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
		}
	}
}

// Stop halts the animation and clears the line.
func (s *spinner) Stop() {
	close(s.stop)
	<-s.stopped
	fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", clearWidth(s.message)))
}

// clearWidth is the number of terminal cells the spinner line occupies:
// frame, space, then the message measured in display cells, not bytes.
func clearWidth(message string) int {
	return lipgloss.Width(message) + 4
}
