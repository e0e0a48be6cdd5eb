// sectors is the command-line front end for the Sectors API knowledge base:
// raw company reports, the SectorScan dashboard, workbook export and a
// tool-calling agent.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/supertypeai/sectors-kb/internal/config"
	"github.com/supertypeai/sectors-kb/internal/logger"
	"github.com/supertypeai/sectors-kb/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app carries state shared by subcommands once configuration is loaded.
type app struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "sectors",
		Short:         "Sectors API knowledge base tools",
		Long:          "Query the Sectors API for IDX companies and sub-sectors, serve the SectorScan\ndashboard, export sector tables and ask a tool-calling agent.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			configFile, _ := cmd.Flags().GetString("config")
			if configFile != "" {
				a.cfg, err = config.LoadFromFile(configFile)
			} else {
				a.cfg, err = config.Load()
			}
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
				a.cfg.Logging.Level = lvl
			}
			logger.InitWriter(cmd.ErrOrStderr(), a.cfg.Logging.Level, a.cfg.Logging.Format)
			return nil
		},
	}
	root.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newCompanyCmd(a),
		newAgentCmd(a),
		newDashboardCmd(a),
		newExportCmd(a),
		newSectorsCmd(a),
		newStatusCmd(a),
		newVersionCmd(),
	)
	return root
}

// --- Version Command ---

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sectors %s\n", version)
			fmt.Fprintf(out, "  commit:  %s\n", commit)
			fmt.Fprintf(out, "  built:   %s\n", date)
		},
	}
}

// --- Status Command ---

func newStatusCmd(a *app) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration and API key status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg := a.cfg
			fmt.Fprintln(out, "═══════════════════════════════════════")
			fmt.Fprintln(out, "  sectors — System Status")
			fmt.Fprintln(out, "═══════════════════════════════════════")
			fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
			fmt.Fprintf(out, "  Time (WIB):    %s\n", utils.FormatDateWIB(utils.NowWIB()))
			fmt.Fprintln(out)

			fmt.Fprintln(out, "  Configuration:")
			fmt.Fprintf(out, "    Sectors API:   %s\n", cfg.API.BaseURL)
			fmt.Fprintf(out, "    Memo store:    %s\n", cfg.Cache.Backend)
			fmt.Fprintf(out, "    LLM:           %s (model: %s)\n", cfg.LLM.BaseURL, cfg.LLM.Model)
			fmt.Fprintf(out, "    Dashboard:     %s\n", cfg.Dashboard.Addr())
			fmt.Fprintln(out)

			fmt.Fprintln(out, "  API Keys:")
			for _, k := range config.CheckAPIKeys(cfg) {
				status := "not set"
				if k.IsSet {
					status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
				}
				fmt.Fprintf(out, "    %-25s %s\n", k.Name+":", status)
			}
			if check {
				fmt.Fprintln(out)
				a.checkConnectivity(cmd.Context(), out)
			}
			fmt.Fprintln(out, "═══════════════════════════════════════")
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "contact the Sectors API and the chat model")
	return cmd
}

const checkTimeout = 10 * time.Second

// checkConnectivity lists sub-sectors and pings the chat model. Failures are
// reported, not returned.
func (a *app) checkConnectivity(ctx context.Context, out io.Writer) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	fmt.Fprintln(out, "  Connectivity:")
	fmt.Fprintf(out, "    %-25s %s\n", "Sectors API:", checkResult(func() error {
		client, closeStore, err := a.newClient()
		if err != nil {
			return err
		}
		defer closeStore()
		_, err = client.Subsectors(ctx)
		return err
	}))
	fmt.Fprintf(out, "    %-25s %s\n", "LLM:", checkResult(func() error {
		p, err := a.newProvider()
		if err != nil {
			return err
		}
		return p.Ping(ctx)
	}))
}

func checkResult(fn func() error) string {
	if err := fn(); err != nil {
		return "FAILED (" + err.Error() + ")"
	}
	return "ok"
}
