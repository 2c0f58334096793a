package cli

import (
	"io"
	"strings"
	"text/template"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/yaklabco/gomgc/internal/ui/pretty"
)

// helpStyles holds the handful of Lipgloss styles used by command help.
type helpStyles struct {
	Command    lipgloss.Style
	Heading    lipgloss.Style
	Subcommand lipgloss.Style
	Example    lipgloss.Style
}

func newHelpStyles(colorEnabled bool) *helpStyles {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		return &helpStyles{Command: plain, Heading: plain, Subcommand: plain, Example: plain}
	}
	return &helpStyles{
		Command:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		Heading:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Subcommand: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Example:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// HelpFormatter renders styled help output for Cobra commands.
type HelpFormatter struct {
	styles *helpStyles
}

// NewHelpFormatter creates a help formatter for the given color mode.
func NewHelpFormatter(colorMode string, writer io.Writer) *HelpFormatter {
	return &HelpFormatter{styles: newHelpStyles(pretty.IsColorEnabled(colorMode, writer))}
}

const helpTemplate = `{{ with (or .Long .Short) }}{{ . | trim }}

{{ end }}{{ styleHeading "Usage:" }}
  {{ if .Runnable }}{{ styleCommand .UseLine }}{{ end }}
  {{ if .HasAvailableSubCommands }}{{ styleCommand .CommandPath }} [command]{{ end }}

{{- if .HasExample }}

{{ styleHeading "Examples:" }}
{{ styleExample .Example }}
{{- end }}

{{- if .HasAvailableSubCommands }}

{{ styleHeading "Available Commands:" }}{{ range .Commands }}{{ if (or .IsAvailableCommand (eq .Name "help")) }}
  {{ styleSubcommand (rpad .Name .NamePadding) }} {{ .Short }}{{ end }}{{ end }}
{{- end }}

{{- if .HasAvailableLocalFlags }}

{{ styleHeading "Flags:" }}
{{ .LocalFlags.FlagUsages | trimRight }}
{{- end }}

{{- if .HasAvailableInheritedFlags }}

{{ styleHeading "Global Flags:" }}
{{ .InheritedFlags.FlagUsages | trimRight }}
{{- end }}

{{- if .HasAvailableSubCommands }}

Use "{{ styleCommand (print .CommandPath " [command] --help") }}" for more information about a command.
{{- end }}
`

func (h *HelpFormatter) funcs() template.FuncMap {
	return template.FuncMap{
		"styleCommand":    h.styles.Command.Render,
		"styleHeading":    h.styles.Heading.Render,
		"styleSubcommand": h.styles.Subcommand.Render,
		"styleExample":    h.styles.Example.Render,
		"trim":            strings.TrimSpace,
		"trimRight":       func(s string) string { return strings.TrimRight(s, " \n") },
		"rpad": func(s string, padding int) string {
			if len(s) >= padding {
				return s
			}
			return s + strings.Repeat(" ", padding-len(s))
		},
	}
}

// ApplyToCommand installs the styled help and usage renderers on a command
// tree. Cobra's stock templates cannot carry custom funcs, so both renderers
// execute the template directly.
func (h *HelpFormatter) ApplyToCommand(cmd *cobra.Command) {
	render := func(command *cobra.Command, w io.Writer) error {
		tmpl, err := template.New("help").Funcs(h.funcs()).Parse(helpTemplate)
		if err != nil {
			return err
		}
		return tmpl.Execute(w, command)
	}

	cmd.SetUsageFunc(func(command *cobra.Command) error {
		return render(command, command.OutOrStdout())
	})
	cmd.SetHelpFunc(func(command *cobra.Command, _ []string) {
		if err := render(command, command.OutOrStdout()); err != nil {
			command.PrintErrln(err)
		}
	})
}
