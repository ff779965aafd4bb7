package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"briefgen/internal/config"
	"briefgen/internal/database"
	"briefgen/internal/pipeline"
	"briefgen/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "briefgen",
	Short:   "SEO content briefs from SERP competitor analysis",
	Long:    "briefgen fetches the top-ranking pages for a keyword, analyzes their structure, and synthesizes an editorial content brief.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Local .env is optional.
		godotenv.Load()

		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("briefgen", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/briefgen/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure search locale, model, and API key env vars.")
		return nil
	},
}

// --- generate command ---

var (
	genAudience string
	genGoal     string
	genResults  int
	genExclude  string
	genOut      string
)

var generateCmd = &cobra.Command{
	Use:   "generate [keyword...]",
	Short: "Generate a content brief for a keyword",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(cfg, db)
		result := pipe.Run(context.Background(), pipeline.Params{
			Keyword:       strings.Join(args, " "),
			Audience:      genAudience,
			Goal:          genGoal,
			ResultCount:   genResults,
			ExcludeDomain: genExclude,
			OutputDir:     genOut,
		})

		failed := false
		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/6: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
				failed = true
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}
		if failed {
			return fmt.Errorf("brief generation failed")
		}

		fmt.Println("\nBrief complete:")
		fmt.Printf("  Document:   %s\n", result.HTMLPath)
		fmt.Printf("  Transcript: %s\n", result.TxtPath)
		fmt.Println("\nRun 'briefgen serve' to browse past briefs.")
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&genAudience, "audience", "a", "", "Target audience (default from config)")
	generateCmd.Flags().StringVarP(&genGoal, "goal", "g", "", "Content goal (default from config)")
	generateCmd.Flags().IntVarP(&genResults, "results", "n", 0, "Ranked results to analyze (3-10)")
	generateCmd.Flags().StringVar(&genExclude, "exclude", "", "Domain to exclude from results")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "Output directory for artifacts")
}

// --- history command ---

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent brief runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.GetRecentRuns(historyLimit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No briefs yet. Generate one with: briefgen generate \"keyword\"")
			return nil
		}

		for _, r := range runs {
			fmt.Printf("  [%d] %s\n", r.ID, r.Keyword)
			fmt.Printf("        %d pages (%d degraded), %s\n", r.PageCount, r.DegradedCount, r.CreatedAt)
			if r.HTMLPath != "" {
				fmt.Printf("        %s\n", r.HTMLPath)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 10, "Number of runs to show")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ledger statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Briefs:")
		fmt.Printf("  Total runs: %d\n", stats.TotalRuns)
		fmt.Printf("  Distinct keywords: %d\n", stats.DistinctKeywords)
		fmt.Println("\nCompetitor analysis:")
		fmt.Printf("  Pages analyzed: %d\n", stats.PagesAnalyzed)
		fmt.Printf("  Degraded fetches: %d\n", stats.DegradedFetches)
		fmt.Printf("\nDatabase: %s\n", db.Path())
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "briefgen.db")
	return database.Open(dbPath)
}
