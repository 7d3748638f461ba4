package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/tripchat/internal/history"
	"github.com/diogo/tripchat/internal/itinerary"
	"github.com/diogo/tripchat/internal/models"
)

var (
	historyOutputFlag    string
	historyFormatFlag    string
	historyRawFlag       bool
	historyNoPlanFlag    bool
	historyContentFlag   bool
	historyFavoritesFlag bool
	historyForceFlag     bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage conversation history",
	Long: `View and manage your local conversation history.

` + history.ListAliases(),
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all conversations",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <ref>",
	Short: "Show a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <ref>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all conversations",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

var historyRenameCmd = &cobra.Command{
	Use:   "rename <ref> <title>",
	Short: "Rename a conversation",
	Args:  cobra.ExactArgs(2),
	RunE:  runHistoryRename,
}

var historyFavoriteCmd = &cobra.Command{
	Use:   "favorite <ref>",
	Short: "Toggle the favorite mark of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryFavorite,
}

var historyExportCmd = &cobra.Command{
	Use:   "export <ref>",
	Short: "Export a conversation to Markdown or JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryExport,
}

var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search conversation titles (and content with --content)",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistorySearch,
}

func init() {
	historyListCmd.Flags().BoolVar(&historyFavoritesFlag, "favorites", false, "Only list favorites")
	historyClearCmd.Flags().BoolVar(&historyForceFlag, "force", false, "Required to delete every conversation")
	historyExportCmd.Flags().StringVarP(&historyOutputFlag, "output", "o", "", "Write to file instead of stdout")
	historyExportCmd.Flags().StringVar(&historyFormatFlag, "format", "", "Export format: markdown or json (default from file extension, else markdown)")
	historyExportCmd.Flags().BoolVar(&historyRawFlag, "raw", false, "Keep ITINERARY_DATA blocks in assistant messages")
	historyExportCmd.Flags().BoolVar(&historyNoPlanFlag, "no-itinerary", false, "Leave out the saved itinerary")
	historySearchCmd.Flags().BoolVar(&historyContentFlag, "content", false, "Also search message content")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyRenameCmd)
	historyCmd.AddCommand(historyFavoriteCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historySearchCmd)
}

// openHistory opens the default store
func openHistory() (*history.Store, error) {
	store, err := history.DefaultStore()
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}

// resolveConversation opens the store and loads the conversation for ref
func resolveConversation(ref string) (*history.Store, *history.Conversation, error) {
	store, err := openHistory()
	if err != nil {
		return nil, nil, err
	}
	conv, err := history.NewResolver(store).ResolveWithInfo(ref)
	if err != nil {
		return nil, nil, err
	}
	return store, conv, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	store, err := openHistory()
	if err != nil {
		return err
	}

	conversations, err := store.ListConversations()
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	favorites, err := store.Favorites()
	if err != nil {
		return fmt.Errorf("failed to read favorites: %w", err)
	}
	isFav := make(map[string]bool, len(favorites))
	for _, id := range favorites {
		isFav[id] = true
	}

	if len(conversations) == 0 {
		_, _ = fmt.Fprintln(out, "No conversation history found.")
		_, _ = fmt.Fprintln(out, "Start one with 'tripchat chat'.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\t\tTITLE\tMODEL\tMESSAGES\tPLAN\tUPDATED")

	listed := 0
	for i, conv := range conversations {
		if historyFavoritesFlag && !isFav[conv.ID] {
			continue
		}
		star := ""
		if isFav[conv.ID] {
			star = "★"
		}
		plan := ""
		if conv.HasItinerary() {
			plan = "✈"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			i+1, star, truncate(conv.Title, 40), conv.Model, len(conv.Messages), plan,
			history.FormatRelativeTime(conv.UpdatedAt))
		listed++
	}

	if err := w.Flush(); err != nil {
		return err
	}
	if listed == 0 {
		_, _ = fmt.Fprintln(out, "No favorite conversations.")
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	store, conv, err := resolveConversation(args[0])
	if err != nil {
		return err
	}
	fav, _ := store.IsFavorite(conv.ID)

	_, _ = fmt.Fprintf(out, "ID: %s\n", conv.ID)
	_, _ = fmt.Fprintf(out, "Title: %s\n", conv.Title)
	if fav {
		_, _ = fmt.Fprintln(out, "Favorite: ★")
	}
	_, _ = fmt.Fprintf(out, "Model: %s\n", conv.Model)
	if conv.Persona != "" {
		_, _ = fmt.Fprintf(out, "Persona: %s\n", conv.Persona)
	}
	_, _ = fmt.Fprintf(out, "Created: %s\n", conv.CreatedAt.Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(out, "Updated: %s\n", conv.UpdatedAt.Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(out, "Messages: %d\n", len(conv.Messages))
	_, _ = fmt.Fprintln(out)

	for i, msg := range conv.Messages {
		role := "You"
		if msg.Role == models.RoleAssistant {
			role = "Guide"
		}
		_, _ = fmt.Fprintf(out, "[%d] %s (%s):\n", i+1, role, msg.Timestamp.Format("15:04"))
		_, _ = fmt.Fprintf(out, "  %s\n\n", truncate(itinerary.StripPayload(msg.Content), 500))
	}

	if conv.HasItinerary() {
		if it, err := itinerary.FromRaw(conv.Itinerary); err == nil {
			_, _ = fmt.Fprintf(out, "Itinerary: %s (see 'tripchat itinerary show %s')\n", it.Label(), conv.ID)
		}
	}

	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	store, conv, err := resolveConversation(args[0])
	if err != nil {
		return err
	}

	if err := store.DeleteConversation(conv.ID); err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted conversation: %s\n", conv.Title)
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	if !historyForceFlag {
		return fmt.Errorf("refusing to delete every conversation without --force")
	}

	store, err := openHistory()
	if err != nil {
		return err
	}

	if err := store.ClearAll(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "All conversations deleted.")
	return nil
}

func runHistoryRename(cmd *cobra.Command, args []string) error {
	store, conv, err := resolveConversation(args[0])
	if err != nil {
		return err
	}

	if err := store.UpdateTitle(conv.ID, args[1]); err != nil {
		return fmt.Errorf("failed to rename: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Renamed '%s' to '%s'\n", conv.Title, args[1])
	return nil
}

func runHistoryFavorite(cmd *cobra.Command, args []string) error {
	store, conv, err := resolveConversation(args[0])
	if err != nil {
		return err
	}

	fav, err := store.ToggleFavorite(conv.ID)
	if err != nil {
		return fmt.Errorf("failed to update favorites: %w", err)
	}

	if fav {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "★ Added '%s' to favorites\n", conv.Title)
	} else {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "☆ Removed '%s' from favorites\n", conv.Title)
	}
	return nil
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	store, conv, err := resolveConversation(args[0])
	if err != nil {
		return err
	}

	formatName := historyFormatFlag
	if formatName == "" && historyOutputFlag != "" {
		formatName = extensionOf(historyOutputFlag)
	}
	format, err := history.ParseExportFormat(formatName)
	if err != nil {
		if historyFormatFlag != "" {
			return err
		}
		format = history.ExportFormatMarkdown
	}

	opts := history.DefaultExportOptions()
	opts.Format = format
	opts.RawPayloads = historyRawFlag
	opts.IncludeItinerary = !historyNoPlanFlag

	data, err := store.Export(conv.ID, opts)
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	return writeExport(cmd, data, historyOutputFlag)
}

// writeExport prints data, or writes it to path when set
func writeExport(cmd *cobra.Command, data []byte, path string) error {
	if path == "" {
		out := cmd.OutOrStdout()
		_, _ = out.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			_, _ = fmt.Fprintln(out)
		}
		return nil
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported to %s\n", path)
	return nil
}

// extensionOf returns the file extension without the dot
func extensionOf(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	store, err := openHistory()
	if err != nil {
		return err
	}

	results, err := store.SearchConversations(args[0], historyContentFlag)
	if err != nil {
		return fmt.Errorf("failed to search: %w", err)
	}

	if len(results) == 0 {
		_, _ = fmt.Fprintf(out, "No conversations matching '%s'.\n", args[0])
		return nil
	}

	for _, r := range results {
		_, _ = fmt.Fprintf(out, "%s  %s\n", r.Conversation.ID, r.Conversation.Title)
		if r.MatchField == "content" {
			_, _ = fmt.Fprintf(out, "    … %s\n", r.MatchSnippet)
		}
	}
	return nil
}
