package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Print a price forecast from the configured model",
	Long: `Load the configured price source and forecast model once and print the
forecast for the next days after the last observation.

Examples:
  brentpulse forecast
  brentpulse forecast --days 30`,
	RunE: runForecast,
}

var forecastDays int

func init() {
	rootCmd.AddCommand(forecastCmd)

	forecastCmd.Flags().IntVar(&forecastDays, "days", 7, "Forecast horizon in days")
}

func runForecast(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	analysis, cleanup, err := buildAnalysis(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	rep, err := analysis.Forecast(ctx, forecastDays, time.Time{})
	if err != nil {
		return fmt.Errorf("forecast: %w", err)
	}

	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("%s model=%s as_of=%s days=%d\n", bold("Forecast"), rep.Model, rep.AsOf.Format(time.DateOnly), rep.Days)
	if rep.Quality != nil {
		fmt.Printf("quality: mae=%s rmse=%s\n", price(rep.Quality.MAE), price(rep.Quality.RMSE))
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tPOINT\tLOWER\tUPPER")
	for _, r := range rep.Rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Time.Format(time.DateOnly), price(r.Point), price(r.Lower), price(r.Upper))
	}
	return w.Flush()
}

// price renders a USD price rounded to cents.
func price(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// pct renders a fraction as a percentage with one decimal.
func pct(v float64) string {
	return decimal.NewFromFloat(v).Shift(2).StringFixed(1) + "%"
}
