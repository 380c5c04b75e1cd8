package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"AffiliationChecker/internal/app"
)

type screenOptions struct {
	input       string
	output      string
	countries   []string
	works       int
	delay       time.Duration
	email       string
	workers     int
	resume      bool
	metricsFile string
}

func newScreenCommand(ctx *commandContext) *cobra.Command {
	var opts screenOptions

	cmd := &cobra.Command{
		Use:   "screen [country codes...]",
		Short: "Screen every candidate of a roster and write the vetted output",
		Args:  cobra.ArbitraryArgs,
		Example: `  affiliationchecker screen -i Data.csv -o Vetted_Output.xlsx -c IL IR
  affiliationchecker screen -i roster.xlsx --works 50 --resume`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()

			if flags.Changed("input") {
				cfg.Run.Input = opts.input
			}
			if flags.Changed("output") {
				cfg.Run.Output = opts.output
			}
			if flags.Changed("works") {
				cfg.Screening.MaxWorks = opts.works
			}
			if flags.Changed("delay") {
				cfg.Source.RequestInterval = opts.delay
			}
			if flags.Changed("email") {
				cfg.Source.PoliteIdentifier = opts.email
			}
			if flags.Changed("workers") {
				cfg.Run.Workers = opts.workers
			}
			if flags.Changed("resume") {
				cfg.Run.Resume = opts.resume
			}
			if flags.Changed("metrics-file") {
				cfg.Metrics.Textfile = opts.metricsFile
			}

			switch {
			case flags.Changed("countries"):
				cfg.SetTargetCountries(append(opts.countries, args...))
			case isTerminal(os.Stdin):
				selected, err := promptCountries(cmd.InOrStdin(), cmd.OutOrStdout(), cfg.Screening.TargetCountries)
				if err != nil {
					return err
				}
				cfg.SetTargetCountries(selected)
			}

			application, err := app.New(cmd.Context(), *cfg, ctx.logger)
			if err != nil {
				return err
			}

			summary, runErr := application.Run(cmd.Context())
			closeErr := application.Close()
			if runErr != nil {
				return runErr
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderSummary(summary, cfg.Screening.TargetCountries))
			fmt.Fprintf(out, "\nResults written to %s\n", cfg.Run.Output)
			if summary.Interrupted {
				fmt.Fprintln(out, "Run interrupted: re-run with --resume to continue.")
			}
			return closeErr
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.input, "input", "i", "", "Roster file (.csv or .xlsx)")
	flags.StringVarP(&opts.output, "output", "o", "", "Output file (.xlsx or .csv)")
	flags.StringSliceVarP(&opts.countries, "countries", "c", nil, "Target country codes, e.g. -c IL,IR or -c IL IR")
	flags.IntVar(&opts.works, "works", 0, "Number of recent works scanned for co-authors")
	flags.DurationVar(&opts.delay, "delay", 0, "Minimum interval between metadata requests")
	flags.StringVar(&opts.email, "email", "", "Contact address sent to OpenAlex (polite pool)")
	flags.IntVar(&opts.workers, "workers", 0, "Candidates screened concurrently")
	flags.BoolVar(&opts.resume, "resume", false, "Skip candidates already stored in the verdict history")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile when done")

	return cmd
}
