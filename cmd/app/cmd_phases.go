package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"BrentPulse/internal/di"
	"BrentPulse/internal/domain/models"
	"BrentPulse/internal/usecase"
)

var phasesCmd = &cobra.Command{
	Use:   "phases",
	Short: "Print bull and bear phases of the price history",
	Long: `Load the configured price source once, segment it into bull and bear
phases and print them as a table.

Examples:
  brentpulse phases
  brentpulse phases --threshold 0.3 --period week`,
	RunE: runPhases,
}

var (
	phasesThreshold float64
	phasesPeriod    string
)

func init() {
	rootCmd.AddCommand(phasesCmd)

	phasesCmd.Flags().Float64Var(&phasesThreshold, "threshold", 0, "Reversal threshold (default: analysis.threshold)")
	phasesCmd.Flags().StringVar(&phasesPeriod, "period", "", "Resampling period (day|week|month|year)")
}

func runPhases(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	analysis, cleanup, err := buildAnalysis(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	threshold := phasesThreshold
	if threshold == 0 {
		threshold = analysis.Threshold()
	}
	rep, err := analysis.Phases(threshold, models.Period(phasesPeriod))
	if err != nil {
		return fmt.Errorf("phases: %w", err)
	}
	printPhases(rep)
	return nil
}

// buildAnalysis wires the analytics core and loads one snapshot. Push
// channels stay off for one-shot commands.
func buildAnalysis(ctx context.Context) (*usecase.MarketAnalysis, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	cfg.Kafka.Brokers = nil

	analysis, cleanup, err := di.InitializeAnalysis(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("analysis initialization failed: %w", err)
	}
	if _, _, err := analysis.Refresh(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("load prices: %w", err)
	}
	return analysis, cleanup, nil
}

func printPhases(rep usecase.PhasesReport) {
	bull := color.New(color.FgGreen).SprintFunc()
	bear := color.New(color.FgRed).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Printf("%s threshold=%s period=%s\n\n", bold("Phases"), pct(rep.Threshold), rep.Period)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tSTART\tEND\tFROM\tTO\tMOVE\tSTATE")
	for _, p := range rep.Phases {
		kind := bull(string(p.Kind))
		if p.Kind == models.PhaseBear {
			kind = bear(string(p.Kind))
		}
		state := "closed"
		if p.Open {
			state = "open"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			kind,
			p.StartTime.Format(time.DateOnly),
			p.EndTime.Format(time.DateOnly),
			price(p.Origin()),
			price(p.Terminus()),
			pct(p.Magnitude),
			state,
		)
	}
	_ = w.Flush()

	s := rep.Summary
	fmt.Printf("\n%s %d bull (mean %s), %d bear (mean %s)\n",
		bold("Summary"), s.Bulls, pct(s.MeanBull), s.Bears, pct(s.MeanBear))
}
