package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mrproliu/go-profiling-instrumentation/instrument"
)

var planCmd = &cobra.Command{
	Use:   "plan [files or packages]",
	Short: "Show which declarations would be instrumented",
	Long: `Run the instrumentation without writing anything and list every declaration that a
directive reached, with the driver that reached it and the outcome.

Example:
  profiling-instrument plan --all ./...`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

var outcomeColors = map[instrument.Outcome]*color.Color{
	instrument.OutcomeInstrumented: color.New(color.FgGreen),
	instrument.OutcomeExcluded:     color.New(color.FgYellow),
	instrument.OutcomeConst:        color.New(color.FgCyan),
}

func runPlan(cmd *cobra.Command, args []string) (err error) {
	cfg, err := settings(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	s, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); err == nil {
			err = cerr
		}
	}()

	files, err := resolveSources(args)
	if err != nil {
		return err
	}
	results, err := instrumentAll(s, files)
	if err != nil {
		return err
	}
	printPlan(cmd.OutOrStdout(), results)
	return nil
}

func printPlan(w io.Writer, results []sourceResult) {
	bold := color.New(color.Bold)
	counts := map[instrument.Outcome]int{}
	for _, r := range results {
		if len(r.result.Decisions) == 0 {
			continue
		}
		bold.Fprintln(w, r.path)
		for _, d := range r.result.Decisions {
			counts[d.Outcome]++
			c, ok := outcomeColors[d.Outcome]
			if !ok {
				c = color.New(color.Reset)
			}
			fmt.Fprintf(w, "  %5d  %-14s %s  %s\n", d.Line, d.Driver, c.Sprintf("%-12s", d.Outcome), d.Label)
		}
	}
	fmt.Fprintf(w, "%d instrumented, %d excluded, %d const\n",
		counts[instrument.OutcomeInstrumented],
		counts[instrument.OutcomeExcluded],
		counts[instrument.OutcomeConst])
}
