package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/dengue-atlas/internal/dashboard"
)

var (
	forecastMonths int
	forecastFormat string
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Print the monthly case forecast",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		months := forecastMonths
		if months == 0 {
			months = cfg.Dashboard.ForecastMonths
		}
		if months < 1 || months > maxForecastMonths {
			return eris.Errorf("forecast: --months must be between 1 and %d", maxForecastMonths)
		}

		env, err := initEnv(ctx, cfg, "forecast")
		if err != nil {
			return err
		}
		defer env.Close()

		v, err := dashboard.FetchForecast(ctx, env.Client, months)
		if err != nil {
			return eris.Wrap(err, "forecast")
		}

		handled, err := writeStructured(os.Stdout, forecastFormat, v)
		if handled || err != nil {
			return err
		}
		formatForecast(os.Stdout, v)
		return nil
	},
}

// maxForecastMonths matches the API's horizon bound.
const maxForecastMonths = 36

func init() {
	forecastCmd.Flags().IntVar(&forecastMonths, "months", 0, "forecast horizon in months (default from config)")
	forecastCmd.Flags().StringVar(&forecastFormat, "format", formatTable, "output format: table, json or yaml")
	rootCmd.AddCommand(forecastCmd)
}
