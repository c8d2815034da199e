// Package main is the entry point for the veriscope CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"veriscope/pkg/config"
	"veriscope/pkg/logger"
	"veriscope/pkg/search"
	"veriscope/pkg/usage"
	"veriscope/pkg/version"
	"veriscope/pkg/webui"
)

var (
	configPath string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "veriscope",
	Short: "veriscope - web search with automatic provider fallback",
	Long: `veriscope is the search layer of a fact-checking assistant.
It tries search providers in priority order (Serper, SearXNG, Brave,
page scraping), enforcing per-provider quotas that survive restarts.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configPath != "" {
			os.Setenv(config.ConfigPathEnv, configPath)
		}
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a one-shot search through the fallback chain",
	Args:  cobra.MinimumNArgs(1),
	Run:   runSearch,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the provider chain and quota usage",
	Run:   runStatus,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the search API server",
	Run:   runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetFullVersion())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	searchCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the raw search outcome as JSON")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// coreModules is the dependency graph shared by all commands.
func coreModules() fx.Option {
	return fx.Options(
		config.Module,
		logger.Module,
		usage.Module,
		search.Module,
	)
}

func runSearch(cmd *cobra.Command, args []string) {
	query := strings.Join(args, " ")

	runOneShot(func(ctx context.Context, log *logger.Logger, orch *search.Orchestrator, tracker *usage.Tracker) {
		if jsonOutput {
			outcome := orch.Search(ctx, query)
			data, err := json.MarshalIndent(outcome, "", "  ")
			if err != nil {
				log.Error("Failed to encode outcome", zap.Error(err))
				os.Exit(1)
			}
			fmt.Println(string(data))
			return
		}
		fmt.Println(orch.Run(ctx, query))
	})
}

func runStatus(cmd *cobra.Command, args []string) {
	runOneShot(func(ctx context.Context, log *logger.Logger, orch *search.Orchestrator, tracker *usage.Tracker) {
		fmt.Println("Provider chain:")
		for i, name := range orch.Providers() {
			fmt.Printf("  %d. %s\n", i+1, name)
		}

		status := tracker.Status()
		names := make([]string, 0, len(status))
		for name := range status {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Println("\nUsage:")
		for _, name := range names {
			s := status[name]
			period := s.Period
			if period == "" {
				period = "unused"
			}
			fmt.Printf("  %-10s %d used, %d remaining (%s)\n", name, s.Used, s.Remaining, period)
		}
	})
}

// runOneShot starts the fx app, runs fn once and shuts down.
func runOneShot(fn func(ctx context.Context, log *logger.Logger, orch *search.Orchestrator, tracker *usage.Tracker)) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := fx.New(
		coreModules(),

		fx.Invoke(func(lc fx.Lifecycle, log *logger.Logger, orch *search.Orchestrator, tracker *usage.Tracker) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						defer cancel()
						fn(ctx, log, orch, tracker)
					}()
					return nil
				},
			})
		}),
		fx.NopLogger, // Suppress fx logs
	)

	if err := app.Start(ctx); err != nil {
		fmt.Printf("Error starting veriscope: %v\n", err)
		os.Exit(1)
	}

	<-ctx.Done()

	if err := app.Stop(context.Background()); err != nil {
		fmt.Printf("Error stopping veriscope: %v\n", err)
	}
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	app := fx.New(
		coreModules(),
		webui.Module,
		fx.NopLogger,
	)

	if err := app.Start(ctx); err != nil {
		fmt.Printf("Error starting server: %v\n", err)
		os.Exit(1)
	}

	<-ctx.Done()

	if err := app.Stop(context.Background()); err != nil {
		fmt.Printf("Error stopping server: %v\n", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
