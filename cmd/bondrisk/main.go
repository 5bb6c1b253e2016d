// Command bondrisk is a bond pricing and credit risk calculator.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/seenimoa/bondrisk/api"
	"github.com/seenimoa/bondrisk/internal/analysis/fixedincome"
	"github.com/seenimoa/bondrisk/internal/batch"
	"github.com/seenimoa/bondrisk/internal/config"
	"github.com/seenimoa/bondrisk/internal/infra"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bondrisk:", err)
		os.Exit(1)
	}
}

// app carries what PersistentPreRunE loads for the subcommands.
type app struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "bondrisk",
		Short: "Bond pricing and credit risk calculator",
		Long: `bondrisk reads a JSON document of bond descriptors and writes each bond back
with its market price, Macaulay and modified duration, convexity, PV01/DV01,
CR01, probability of default, loss given default, expected loss and the
discounted cashflow schedule.

Examples:
  bondrisk < bonds.json > metrics.json
  bondrisk calc --input bonds.json --pretty
  bondrisk tables
  bondrisk serve --port 8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		RunE: a.runCalc,
	}

	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	addCalcFlags(rootCmd)

	rootCmd.AddCommand(newCalcCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newTablesCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func (a *app) load(cmd *cobra.Command) error {
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

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		a.cfg.Logging.Level = level
	}
	a.logger, err = infra.NewLogger(a.cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	return nil
}

// --- Calc Command ---

func newCalcCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute bond metrics from a JSON document (default command)",
		Args:  cobra.NoArgs,
		RunE:  a.runCalc,
	}
	addCalcFlags(cmd)
	return cmd
}

func addCalcFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", "", "input file (default: stdin)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().Bool("pretty", false, "indent the output document")
}

func (a *app) runCalc(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument %q", args[0])
	}

	in := cmd.InOrStdin()
	if path, _ := cmd.Flags().GetString("input"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	indent := a.cfg.Output.IndentString()
	if pretty, _ := cmd.Flags().GetBool("pretty"); pretty {
		out := a.cfg.Output
		out.Pretty = true
		indent = out.IndentString()
	}

	// Buffer the whole result so a failed batch leaves the destination untouched.
	var buf bytes.Buffer
	if err := batch.NewCalculator(a.logger).Run(in, &buf, indent); err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		_, err := io.Copy(cmd.OutOrStdout(), &buf)
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// --- Serve Command (API Server) ---

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("host") {
				a.cfg.API.Host, _ = cmd.Flags().GetString("host")
			}
			if cmd.Flags().Changed("port") {
				a.cfg.API.Port, _ = cmd.Flags().GetInt("port")
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := api.NewServer(a.cfg, a.logger, version)
			return srv.ListenAndServe(ctx, a.cfg.API.Addr())
		},
	}
	cmd.Flags().String("host", "", "listen host (overrides api.host)")
	cmd.Flags().Int("port", 0, "listen port (overrides api.port)")
	return cmd
}

// --- Tables Command ---

func newTablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Print the rating→PD and sector→LGD lookup tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables := fixedincome.Tables()
			out := cmd.OutOrStdout()

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(tables, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RATING\tPD")
			for _, r := range tables.Ratings {
				fmt.Fprintf(tw, "%s\t%.2f%%\n", r.Rating, r.PD*100)
			}
			fmt.Fprintf(tw, "(other)\t%.2f%%\n", tables.PDFallback*100)
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "SECTOR\tLGD")
			for _, s := range tables.Sectors {
				fmt.Fprintf(tw, "%s\t%.0f%%\n", s.Sector, s.LGD*100)
			}
			fmt.Fprintf(tw, "(other)\t%.0f%%\n", tables.LGDFallback*100)
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("json", false, "print the tables as JSON")
	return cmd
}

// --- Version Command ---

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "bondrisk %s\n", version)
			fmt.Fprintf(out, "  commit:  %s\n", commit)
			fmt.Fprintf(out, "  built:   %s\n", date)
		},
	}
}
