package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"travelplanner/config"
	"travelplanner/logger"
	"travelplanner/services"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "travelplanner",
		Short: "Travel plan aggregator",
		Long: `travelplanner combines a weather forecast, attraction listings, simulated
flight offers and an LLM-written itinerary into a single travel plan.

Run without a subcommand to start the HTTP API.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}

	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = defaultConfigPath
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "Config file path (YAML)")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	})
	cmd.AddCommand(planCmd(&configPath))

	return cmd
}

func setup(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, log), nil
}

func serve(configPath string) error {
	a, err := setup(configPath)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("travel planner API starting on port %s", a.cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func planCmd(configPath *string) *cobra.Command {
	var (
		req     services.TravelRequest
		asJSON  bool
		pdfPath string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate a travel plan and print it",
		Example: `  travelplanner plan --destination 北京 --days 3 --budget 中等
  travelplanner plan -d 北京 -n 2 --from 上海 --date 2025-11-01 --interest 美食 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(*configPath)
			if err != nil {
				return err
			}

			plan, err := a.planner.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}

			if pdfPath != "" {
				data, err := a.pdf.Render(plan)
				if err != nil {
					return err
				}
				if err := os.WriteFile(pdfPath, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", pdfPath, err)
				}
				a.log.Infof("PDF written to %s", pdfPath)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				return enc.Encode(plan)
			}
			_, err = fmt.Fprintln(out, plan.Itinerary)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&req.Destination, "destination", "d", "", "Destination city")
	f.IntVarP(&req.Days, "days", "n", 3, "Trip length in days (1-30)")
	f.StringVarP(&req.Budget, "budget", "b", "中等", "Budget level")
	f.StringVar(&req.DepartureCity, "from", "", "Departure city (flights need --date too)")
	f.StringVar(&req.StartDate, "date", "", "Start date, YYYY-MM-DD")
	f.StringSliceVar(&req.Interests, "interest", nil, "Interest, repeatable")
	f.BoolVar(&asJSON, "json", false, "Print the full plan as JSON")
	f.StringVar(&pdfPath, "pdf", "", "Also write the plan as a PDF to this path")
	_ = cmd.MarkFlagRequired("destination")

	return cmd
}
