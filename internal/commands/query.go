package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/diogo/tripchat/internal/api"
	"github.com/diogo/tripchat/internal/chat"
	"github.com/diogo/tripchat/internal/config"
	apierrors "github.com/diogo/tripchat/internal/errors"
	"github.com/diogo/tripchat/internal/itinerary"
	"github.com/diogo/tripchat/internal/render"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff9933"), // Saffron
	lipgloss.Color("#f4c430"), // Turmeric
	lipgloss.Color("#e4717a"), // Rose
	lipgloss.Color("#c71585"), // Magenta
	lipgloss.Color("#4b6cb7"), // Indigo
	lipgloss.Color("#138808"), // Green
	lipgloss.Color("#20b2aa"), // Peacock
	lipgloss.Color("#ffb347"), // Marigold
}

var (
	colorText     = lipgloss.Color("#f5e6d3")
	colorTextDim  = lipgloss.Color("#a08c78")
	colorTextMute = lipgloss.Color("#5c4a3d")
	colorSuccess  = lipgloss.Color("#7fb069")
	colorPrimary  = lipgloss.Color("#ff9933")
	colorAccent   = lipgloss.Color("#20b2aa")
	colorError    = lipgloss.Color("#e4572e")
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)

	itineraryLabelStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true)

	itineraryBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.DoubleBorder()).
				BorderForeground(colorAccent).
				Padding(0, 1).
				MarginTop(1)
)

// spinner handles the animated loading indicator
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool // Flag to prevent double-close
}

// newSpinner creates a new animated spinner drawing on out
func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current animation frame
func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "▓", "▒", "░"}

	spinIdx := s.frame % len(chars)
	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	barWidth := 16
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + s.frame) % len(gradientColors)
		charIdx := (i + s.frame/2) % len(barChars)
		bar.WriteString(lipgloss.NewStyle().Foreground(gradientColors[colorIdx]).Render(barChars[charIdx]))
	}

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(s.frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)

	fmt.Fprintf(s.out, "\r\033[K%s %s %s %s", spinnerChar, bar.String(), msg, dots.String())
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	msg := lipgloss.NewStyle().Foreground(colorSuccess).Render(message)
	fmt.Fprintf(s.out, "%s %s\n", checkmark, msg)
}

// stopWithError stops the spinner
func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// runQuery sends a single prompt and prints the reply. When an itinerary is
// found in the reply it is rendered below it. If rawOutput is true the
// reply text is printed unchanged, markers included.
func runQuery(cmd *cobra.Command, deps *Dependencies, prompt string, rawOutput bool) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	deps = deps.withDefaults()
	ctx := commandContext(cmd)
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	persona, err := resolvePersona()
	if err != nil {
		return err
	}

	verbose := cfg.Verbose && !rawOutput
	if verbose {
		_, _ = fmt.Fprintf(stderr, "[verbose] Provider: %s, model: %s\n", cfg.ProviderOf(), cfg.ModelName())
		if persona != nil {
			_, _ = fmt.Fprintf(stderr, "[verbose] Using persona: %s\n", persona.Name)
		}
	}

	client, err := newClient(ctx, deps, cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	session := api.NewChatSession(client, persona)
	if modelFlag != "" {
		session.SetModel(modelFlag)
	}

	ctrl := chat.NewController(chat.WithLogger(logger))
	ctrl.SetInput(prompt)
	if _, ok := ctrl.Submit(); !ok {
		return fmt.Errorf("prompt cannot be empty")
	}

	var spin *spinner
	if !rawOutput {
		spin = newSpinner(stderr, "Planning")
		spin.start()
	}

	startTime := time.Now()
	reply, err := session.SendMessage(ctx, ctrl.Messages())
	requestDuration := time.Since(startTime)

	if err != nil {
		ctrl.Fail(err)
		logger.Error("one-shot request failed", zap.Error(err), zap.Duration("duration", requestDuration))
		if !rawOutput {
			spin.stopWithError()
			_, _ = fmt.Fprintln(stderr, formatErrorMessage(err, "Request failed"))
		}
		return fmt.Errorf("request failed: %w", err)
	}
	ctrl.Complete(reply)
	logger.Info("one-shot request finished", zap.Duration("duration", requestDuration))

	if !rawOutput {
		spin.stopWithSuccess("Done")
	}

	if verbose {
		_, _ = fmt.Fprintf(stderr, "[verbose] Request took %s\n", requestDuration.Round(time.Millisecond))
		if reply.FinishReason != "" {
			_, _ = fmt.Fprintf(stderr, "[verbose] Finish reason: %s\n", reply.FinishReason)
		}
		if reply.HasStructured() {
			_, _ = fmt.Fprintln(stderr, "[verbose] Reply carries a structured itinerary")
		}
	}

	if outputFlag != "" {
		if err := os.WriteFile(outputFlag, []byte(reply.Text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !rawOutput {
			_, _ = fmt.Fprintln(stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render(
				fmt.Sprintf("✓ Response saved to %s", outputFlag)))
		}
		return nil
	}

	if rawOutput {
		_, _ = fmt.Fprint(stdout, reply.Text)
		return nil
	}

	text := itinerary.StripPayload(reply.Text)
	_, _ = fmt.Fprintln(stderr)

	if cfg.CopyToClipboard {
		if err := deps.Clipboard(text); err != nil {
			_, _ = fmt.Fprintln(stderr, lipgloss.NewStyle().Foreground(colorError).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else {
			_, _ = fmt.Fprintln(stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard"))
		}
	}

	printReply(stdout, text, ctrl.Itinerary(), render.OptionsFromConfig(cfg), getTerminalWidth())
	return nil
}

// printReply writes the assistant bubble and, when present, the itinerary
func printReply(out io.Writer, text string, it *itinerary.Itinerary, opts render.Options, termWidth int) {
	bubbleWidth := min(max(termWidth-4, 40), 120)
	contentWidth := bubbleWidth - 4
	opts = opts.WithWidth(contentWidth)

	rendered := strings.TrimRight(render.MarkdownOrPlain(text, opts), "\n")
	_, _ = fmt.Fprintln(out, assistantLabelStyle.Render("✦ Guide"))
	_, _ = fmt.Fprintln(out, assistantBubbleStyle.Width(bubbleWidth).Render(rendered))

	if it == nil {
		return
	}
	plan := strings.TrimRight(render.MarkdownOrPlain(it.Markdown(), opts), "\n")
	_, _ = fmt.Fprintln(out, itineraryLabelStyle.Render("✈ "+it.Label()))
	_, _ = fmt.Fprintln(out, itineraryBubbleStyle.Width(bubbleWidth).Render(plan))
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	if body := apierrors.GetResponseBody(err); body != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n\n  %s", strings.ReplaceAll(body, "\n", "\n  "))))
		return sb.String()
	}

	// Hints only when there is no body to read
	switch {
	case apierrors.IsAuthError(err):
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Hint: Check your API key (%s) or pass --api-key", config.APIKeyEnv)))
	case apierrors.IsRateLimitError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: You've hit the usage limit. Try again later or use a different model"))
	case apierrors.IsTimeoutError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Request timed out. Try again or raise timeout_seconds"))
	case apierrors.IsNetworkError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check your internet connection and try again"))
	}

	return sb.String()
}

// truncate shortens s to n runes, adding an ellipsis
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
