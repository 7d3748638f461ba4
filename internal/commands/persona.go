package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/diogo/tripchat/internal/config"
)

var personaCmd = &cobra.Command{
	Use:   "persona",
	Short: "Manage travel guide personas",
	Long: `Personas set the voice of the travel guide: a system prompt, an optional
region to focus on, and whether the guide drafts itineraries for the
Itinerary tab. Built-in guides can be chosen as default but not deleted.`,
}

var personaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available personas",
	Args:  cobra.NoArgs,
	RunE:  runPersonaList,
}

var personaShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show persona details",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersonaShow,
}

var personaAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a guide interactively",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersonaAdd,
}

var personaDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a custom persona",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersonaDelete,
}

var personaSetDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Set the guide used when --persona is not given",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersonaSetDefault,
}

func init() {
	personaCmd.AddCommand(personaListCmd)
	personaCmd.AddCommand(personaShowCmd)
	personaCmd.AddCommand(personaAddCmd)
	personaCmd.AddCommand(personaDeleteCmd)
	personaCmd.AddCommand(personaSetDefaultCmd)
}

// yesNo renders a flag for the persona tables
func yesNo(b bool) string {
	return lo.Ternary(b, "yes", "no")
}

func runPersonaList(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadPersonas()
	if err != nil {
		return fmt.Errorf("failed to load personas: %w", err)
	}
	defaultName, err := config.ConfiguredDefaultPersona()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tREGION\tPLANS\tDESCRIPTION\tDEFAULT")

	for _, p := range cfg.Personas {
		name := p.Name
		if !config.IsBuiltinPersona(p.Name) {
			name += "*"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			name, orDash(p.Region), yesNo(p.PlansItineraries()), p.Description,
			lo.Ternary(p.Name == defaultName, "✓", ""))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "\n* custom persona")
	return nil
}

func runPersonaShow(cmd *cobra.Command, args []string) error {
	persona, err := config.GetPersona(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Name: %s\n", persona.Name)
	_, _ = fmt.Fprintf(out, "Description: %s\n", persona.Description)
	_, _ = fmt.Fprintf(out, "Built-in: %s\n", yesNo(config.IsBuiltinPersona(persona.Name)))
	_, _ = fmt.Fprintf(out, "Region: %s\n", orDash(persona.Region))
	_, _ = fmt.Fprintf(out, "Drafts itineraries: %s\n", yesNo(persona.PlansItineraries()))
	if persona.Model != "" {
		_, _ = fmt.Fprintf(out, "Preferred Model: %s\n", persona.Model)
	}
	if persona.Temperature > 0 {
		_, _ = fmt.Fprintf(out, "Temperature: %.1f\n", persona.Temperature)
	}

	if persona.SystemPrompt == "" {
		_, _ = fmt.Fprintln(out, "\nSystem Prompt: (none)")
		return nil
	}
	_, _ = fmt.Fprintf(out, "\nSystem Prompt:\n%s\n", persona.SystemPrompt)
	return nil
}

// personaPrompter reads the answers of `persona add` from the command input
type personaPrompter struct {
	out io.Writer
	in  *bufio.Reader
}

func (p personaPrompter) line(question string) (string, error) {
	_, _ = fmt.Fprint(p.out, question)
	s, err := p.in.ReadString('\n')
	if err != nil && s == "" {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// block reads lines until an empty one or end of input
func (p personaPrompter) block(question string) string {
	_, _ = fmt.Fprintln(p.out, question)
	var lines []string
	for {
		s, err := p.in.ReadString('\n')
		s = strings.TrimRight(s, "\r\n")
		if s == "" {
			break
		}
		lines = append(lines, s)
		if err != nil {
			break
		}
	}
	return strings.Join(lines, "\n")
}

func runPersonaAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	if _, err := config.GetPersona(name); err == nil {
		return fmt.Errorf("persona '%s' already exists", name)
	}

	ask := personaPrompter{out: cmd.OutOrStdout(), in: bufio.NewReader(cmd.InOrStdin())}

	desc, err := ask.line("Description: ")
	if err != nil {
		return err
	}
	region, _ := ask.line("Region to focus on (empty for anywhere): ")
	prompt := ask.block("Guide instructions (end with an empty line):")
	plans, _ := ask.line("Draft itineraries for the Itinerary tab? [Y/n]: ")

	persona := config.Persona{
		Name:         name,
		Description:  desc,
		SystemPrompt: prompt,
		Region:       region,
		NoItinerary:  strings.HasPrefix(strings.ToLower(plans), "n"),
	}
	if err := config.AddPersona(persona); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Persona '%s' created.\n", name)
	return nil
}

func runPersonaDelete(cmd *cobra.Command, args []string) error {
	if err := config.DeletePersona(args[0]); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Persona '%s' deleted.\n", args[0])
	return nil
}

func runPersonaSetDefault(cmd *cobra.Command, args []string) error {
	if err := config.SetDefaultPersona(args[0]); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Default persona set to '%s'.\n", args[0])
	return nil
}
