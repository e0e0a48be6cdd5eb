package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/supertypeai/sectors-kb/api"
	"github.com/supertypeai/sectors-kb/internal/agent"
	"github.com/supertypeai/sectors-kb/internal/agent/prompts"
	"github.com/supertypeai/sectors-kb/internal/llm"
	"github.com/supertypeai/sectors-kb/internal/providers/sectors"
	"github.com/supertypeai/sectors-kb/internal/report"
	"github.com/supertypeai/sectors-kb/internal/shaper"
	"github.com/supertypeai/sectors-kb/internal/tools"
	"github.com/supertypeai/sectors-kb/pkg/utils"
)

// --- Company Command ---

func newCompanyCmd(a *app) *cobra.Command {
	var (
		stock   string
		section string
		pretty  bool
	)
	cmd := &cobra.Command{
		Use:   "company",
		Short: "Print one section of a company report",
		Long: `Fetch one section of a company report and print the JSON body.

Sections: ` + strings.Join(sectors.CompanySections, ", ") + `

The --section flag has no short form; -s is --stock.

Examples:
  sectors company -s BBCA
  sectors company --stock BBRI.JK --section financials --pretty`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sectors.ValidateSymbol(stock); err != nil {
				return err
			}
			if err := sectors.ValidateCompanySection(section); err != nil {
				return err
			}
			client, closeStore, err := a.newClient()
			if err != nil {
				return err
			}
			defer closeStore()

			body, err := client.CompanyReport(cmd.Context(), stock, section)
			if err != nil {
				return err
			}
			return printJSON(cmd, body, pretty)
		},
	}
	cmd.Flags().StringVarP(&stock, "stock", "s", "", "stock symbol, e.g. BBCA")
	cmd.Flags().StringVar(&section, "section", "overview", "report section")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	_ = cmd.MarkFlagRequired("stock")
	return cmd
}

func printJSON(cmd *cobra.Command, body []byte, pretty bool) error {
	out := cmd.OutOrStdout()
	if !pretty {
		_, err := fmt.Fprintln(out, string(body))
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return fmt.Errorf("indenting response: %w", err)
	}
	_, err := fmt.Fprintln(out, buf.String())
	return err
}

// --- Sectors Command ---

func newSectorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sectors",
		Short: "List available sub-sectors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeStore, err := a.newClient()
			if err != nil {
				return err
			}
			defer closeStore()

			list, err := client.Subsectors(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range list {
				fmt.Fprintf(out, "%-40s %s\n", s, utils.FormatSectorLabel(s))
			}
			return nil
		},
	}
}

// --- Export Command ---

func newExportCmd(a *app) *cobra.Command {
	var (
		selected []string
		outPath  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write sector tables to an XLSX workbook",
		Long: `Shape the market cap, valuation and top company tables for the given
sub-sectors and write them to a workbook, one sheet per table.

Example:
  sectors export --sectors banks,tobacco --out sectors.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(selected) == 0 {
				return &sectors.ValidationError{Field: "sectors", Reason: "select at least one sector"}
			}
			client, closeStore, err := a.newClient()
			if err != nil {
				return err
			}
			defer closeStore()

			tables, err := shaper.New(client).All(cmd.Context(), selected)
			if err != nil {
				return err
			}

			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating %s: %w", outPath, err)
			}
			if err := report.WriteWorkbook(f, tables); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d sectors to %s\n", len(tables.Sectors), outPath)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&selected, "sectors", nil, "comma-separated sub-sector slugs")
	cmd.Flags().StringVar(&outPath, "out", "sectors.xlsx", "output workbook path")
	return cmd
}

// --- Dashboard Command ---

func newDashboardCmd(a *app) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the SectorScan dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeStore, err := a.newClient()
			if err != nil {
				return err
			}
			defer closeStore()

			cfg := a.cfg.Dashboard
			if host != "" {
				cfg.Host = host
			}
			if port > 0 {
				cfg.Port = port
			}
			fmt.Fprintf(cmd.OutOrStdout(), "SectorScan on http://%s\n", cfg.Addr())
			return api.NewServer(cfg, client, version).ListenAndServe(cfg.Addr())
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	return cmd
}

// --- Agent Command ---

func newAgentCmd(a *app) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "agent [question...]",
		Short: "Answer questions with the tool-calling agent",
		Long: `Send each question to the chat model with the Sectors API tools attached.
Without arguments the three sample questions are asked.

Example:
  sectors agent "What are the top 5 companies by transaction volume on 2024-06-04?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			questions := args
			if len(questions) == 0 {
				questions = prompts.DefaultQueries()
			}

			provider, err := a.newProvider()
			if err != nil {
				return err
			}
			client, closeStore, err := a.newClient()
			if err != nil {
				return err
			}
			defer closeStore()

			runner, err := agent.NewRunner(agent.Config{
				Provider: provider,
				Registry: tools.NewRegistry(client),
				ChatOptions: &llm.ChatOptions{
					Model:       a.cfg.LLM.Model,
					Temperature: a.cfg.LLM.Temperature,
					MaxTokens:   a.cfg.LLM.MaxTokens,
				},
				MaxToolIter: a.cfg.LLM.MaxToolIter,
				Verbose:     verbose,
			})
			if err != nil {
				return err
			}
			_, err = runner.AskAll(cmd.Context(), questions, cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every tool invocation")
	return cmd
}
