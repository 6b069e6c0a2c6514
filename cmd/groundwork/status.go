package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/groundworklabs/groundwork/internal/config"
	"github.com/groundworklabs/groundwork/internal/state"
)

var (
	statusTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	statusSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusFailedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	statusOtherStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func newStatusCmd() *cobra.Command {
	var configPath string
	var stateDir string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recorded step outcomes from previous runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ParseConfig(configPath)
			if err != nil {
				return err
			}

			dir, err := stateDirFor(stateDir, cfg.Name)
			if err != nil {
				return err
			}

			// Read-only inspection, no run lock taken.
			st, err := state.Inspect(dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, statusTitleStyle.Render(fmt.Sprintf("groundwork • %s", cfg.Name)))

			if len(st.Records) == 0 {
				fmt.Fprintln(out, "No recorded runs.")
				return nil
			}

			ids := make([]string, 0, len(st.Records))
			for id := range st.Records {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			for _, id := range ids {
				rec := st.Records[id]
				line := fmt.Sprintf(" %s %s", renderRecordStatus(rec.Status), id)
				if strings.TrimSpace(rec.Message) != "" {
					line = fmt.Sprintf("%s — %s", line, rec.Message)
				}
				if rec.Status == state.StatusFailed && rec.ExitCode != 0 {
					line = fmt.Sprintf("%s (exit %d)", line, rec.ExitCode)
				}
				fmt.Fprintln(out, line)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&stateDir, "state-dir", "", "Directory for execution state (default ~/.groundwork/<config-name>)")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}

func renderRecordStatus(status state.Status) string {
	switch status {
	case state.StatusSucceeded:
		return statusSuccessStyle.Render("✓")
	case state.StatusFailed:
		return statusFailedStyle.Render("✗")
	default:
		return statusOtherStyle.Render("…")
	}
}
