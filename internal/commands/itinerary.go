package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/diogo/tripchat/internal/history"
	"github.com/diogo/tripchat/internal/itinerary"
	"github.com/diogo/tripchat/internal/render"
)

var (
	itineraryFormatFlag string
	itineraryOutputFlag string
	itineraryStartFlag  string
)

var itineraryCmd = &cobra.Command{
	Use:     "itinerary",
	Aliases: []string{"plan"},
	Short:   "Show or export saved itineraries",
	Long: `Show or export the itinerary saved with a conversation.

Without a reference the most recent conversation holding an itinerary
(@trip) is used.

` + history.ListAliases(),
}

var itineraryShowCmd = &cobra.Command{
	Use:   "show [ref]",
	Short: "Render an itinerary in the terminal",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runItineraryShow,
}

var itineraryExportCmd = &cobra.Command{
	Use:   "export [ref]",
	Short: "Export an itinerary as JSON, YAML, iCalendar or Markdown",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runItineraryExport,
}

func init() {
	formats := lo.Map(itinerary.Formats(), func(f itinerary.Format, _ int) string { return string(f) })

	itineraryExportCmd.Flags().StringVar(&itineraryFormatFlag, "format", "",
		"Export format: "+strings.Join(formats, ", ")+" (default from file extension, else json)")
	itineraryExportCmd.Flags().StringVarP(&itineraryOutputFlag, "output", "o", "", "Write to file instead of stdout")
	itineraryExportCmd.Flags().StringVar(&itineraryStartFlag, "start", "", "First day of the trip for calendar export (YYYY-MM-DD, default today)")

	itineraryCmd.AddCommand(itineraryShowCmd)
	itineraryCmd.AddCommand(itineraryExportCmd)
}

// loadItinerary resolves ref (default @trip) and parses its saved itinerary
func loadItinerary(args []string) (*history.Conversation, *itinerary.Itinerary, error) {
	ref := "@trip"
	if len(args) > 0 {
		ref = args[0]
	}

	_, conv, err := resolveConversation(ref)
	if err != nil {
		return nil, nil, err
	}
	if !conv.HasItinerary() {
		return nil, nil, fmt.Errorf("conversation '%s' has no itinerary", conv.Title)
	}

	it, err := itinerary.FromRaw(conv.Itinerary)
	if err != nil {
		return nil, nil, fmt.Errorf("saved itinerary is unreadable: %w", err)
	}
	return conv, it, nil
}

func runItineraryShow(cmd *cobra.Command, args []string) error {
	_, it, err := loadItinerary(args)
	if err != nil {
		return err
	}

	cfg := loadConfig()
	opts := render.OptionsFromConfig(cfg).ForItinerary(getTerminalWidth() - 4)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), render.MarkdownOrPlain(it.Markdown(), opts))
	return nil
}

func runItineraryExport(cmd *cobra.Command, args []string) error {
	_, it, err := loadItinerary(args)
	if err != nil {
		return err
	}

	format, err := exportFormat(itineraryFormatFlag, itineraryOutputFlag)
	if err != nil {
		return err
	}

	start, err := parseStartDate(itineraryStartFlag, time.Now())
	if err != nil {
		return err
	}

	data, err := it.Render(format, start)
	if err != nil {
		return fmt.Errorf("failed to export itinerary: %w", err)
	}

	return writeExport(cmd, data, itineraryOutputFlag)
}

// exportFormat takes the --format value, else the output extension, else JSON
func exportFormat(flag, output string) (itinerary.Format, error) {
	if flag != "" {
		return itinerary.ParseFormat(flag)
	}
	if ext := extensionOf(output); ext != "" {
		if f, err := itinerary.ParseFormat(ext); err == nil {
			return f, nil
		}
	}
	return itinerary.FormatJSON, nil
}

// parseStartDate reads a YYYY-MM-DD date, defaulting to today
func parseStartDate(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q: use YYYY-MM-DD", s)
	}
	return t, nil
}
