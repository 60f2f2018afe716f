// cmd/agentlog/main.go
//
// Minimal command surface over the ledger subsystem. Everything else in the
// surrounding tracker (manifest loading, scaffolding, TUI) talks to the
// ledger through its Go API; this binary exists for scripts and humans.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/agentictools/agentlog/internal/config"
	"github.com/agentictools/agentlog/internal/ledger"
	"github.com/agentictools/agentlog/internal/logging"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	countStyle = lipgloss.NewStyle().Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func openLedger() (*ledger.Ledger, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.WorkspaceRoot)
	if err != nil {
		// Logging is best-effort; a read-only workspace should not block
		// queries.
		log = nil
	}
	closer := func() { log.Close() }
	return ledger.New(cfg, log), closer, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "agentlog",
		Short:         "Structured event ledger for file-based multi-agent projects",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newLogCmd(), newSummaryCmd(), newNextIDCmd())
	return root
}

func newLogCmd() *cobra.Command {
	var (
		refID       string
		status      string
		source      string
		target      string
		severity    string
		trigger     string
		versionBump string
		artifacts   []string
		impacted    []string
	)
	cmd := &cobra.Command{
		Use:   "log <project> <log-file> <kind> <summary>",
		Short: "Write one entry to the structured store and its document",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := ledger.ParseKind(args[2])
			if !ok {
				return fmt.Errorf("unknown entry kind %q", args[2])
			}
			led, done, err := openLedger()
			if err != nil {
				return err
			}
			defer done()

			extra := map[string]any{}
			setIf(extra, "source", source)
			setIf(extra, "target", target)
			setIf(extra, "severity", severity)
			setIf(extra, "trigger", trigger)
			setIf(extra, "version_bump", versionBump)
			if len(artifacts) > 0 {
				extra["artifacts"] = artifacts
			}
			if len(impacted) > 0 {
				extra["impacted_agents"] = impacted
			}

			mdPath, storePath, err := led.WriteLog(ledger.LogRequest{
				Project: args[0],
				LogFile: args[1],
				Kind:    kind,
				RefID:   refID,
				Summary: args[3],
				Status:  status,
				Extra:   extra,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mdPath)
			if storePath != "" {
				fmt.Fprintln(cmd.OutOrStdout(), storePath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&refID, "id", "", "pre-supplied reference id (next sequential id when empty)")
	cmd.Flags().StringVar(&status, "status", "", "entry status (kind-specific default when empty)")
	cmd.Flags().StringVar(&source, "source", "", "source agent")
	cmd.Flags().StringVar(&target, "target", "", "target agent")
	cmd.Flags().StringVar(&severity, "severity", "", "feedback severity")
	cmd.Flags().StringVar(&trigger, "trigger", "", "iteration trigger event")
	cmd.Flags().StringVar(&versionBump, "version-bump", "", "iteration version bump")
	cmd.Flags().StringSliceVar(&artifacts, "artifacts", nil, "artifact paths")
	cmd.Flags().StringSliceVar(&impacted, "impacted", nil, "impacted agents")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <project>",
		Short: "Print a point-in-time digest of the project's logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			led, done, err := openLedger()
			if err != nil {
				return err
			}
			defer done()

			project := args[0]
			s := led.Summary(project)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Project: "+project))
			row := func(label string, n int) {
				fmt.Fprintf(out, "  %s %s\n", labelStyle.Render(label), countStyle.Render(fmt.Sprintf("%d", n)))
			}
			row("Pending handoffs:  ", s.PendingHandoffs)
			row("Open feedback:     ", s.OpenFeedback)
			row("Active blockers:   ", s.ActiveBlockers)
			row("Active assumptions:", s.ActiveAssumptions)
			row("Decisions:         ", s.TotalDecisions)
			row("Iterations:        ", s.TotalIterations)
			if s.ActiveSession != nil {
				fmt.Fprintf(out, "  %s %s (%s)\n", labelStyle.Render("Active session:    "),
					s.ActiveSession.AgentID, s.ActiveSession.AgentRole)
			} else {
				fmt.Fprintf(out, "  %s %s\n", labelStyle.Render("Active session:    "),
					warnStyle.Render("none"))
			}
			return nil
		},
	}
}

func newNextIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next-id <project> <log-file> <kind>",
		Short: "Print the id the next entry of this kind would receive",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := ledger.ParseKind(args[2])
			if !ok {
				return fmt.Errorf("unknown entry kind %q", args[2])
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			mdPath, storePath := cfg.ResolveLogPaths(args[0], args[1])
			fmt.Fprintln(cmd.OutOrStdout(), ledger.NextID(storePath, mdPath, kind))
			return nil
		},
	}
}

func setIf(extra map[string]any, key, value string) {
	if strings.TrimSpace(value) != "" {
		extra[key] = value
	}
}
