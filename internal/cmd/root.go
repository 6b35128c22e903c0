// Package cmd provides the command-line interface for skrapa.
// It handles flag parsing, configuration loading and audit execution.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/sajtmaskin/skrapa/internal/config"
	"github.com/sajtmaskin/skrapa/internal/logging"
	"github.com/sajtmaskin/skrapa/internal/scrape"
	"github.com/sajtmaskin/skrapa/internal/storage"
)

var (
	cfgFile   string
	version   string
	buildTime string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "skrapa [URLs...]",
	Short: "Bounded website crawler producing audit-ready content summaries",
	Long: `Skrapa turns a website URL into a single structured content summary.

It performs a small, best-first crawl of the site's most content-rich
pages and merges them into one token-budgeted aggregate suitable for
feeding a downstream language-model site audit.`,
	Args: cobra.ArbitraryArgs,
	RunE: runAudit,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information for the CLI
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./skrapa.yml)")

	rootCmd.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")
	rootCmd.Flags().Bool("pretty", false, "Indent the JSON output")
	rootCmd.Flags().Int("history", 0, "List the N most recent stored audits and exit (requires --database)")

	// Crawl budget flags
	rootCmd.Flags().IntP("max-pages", "p", 4, "Maximum pages sampled per audit")
	rootCmd.Flags().Int("max-links", 25, "Maximum candidate links enqueued per page")
	rootCmd.Flags().Int("max-fetches", 12, "Total fetch attempts per audit, failures included")
	rootCmd.Flags().Int("word-limit", 2000, "Hard cap on aggregated text in words")

	// HTTP flags
	rootCmd.Flags().DurationP("timeout", "t", 15*time.Second, "Per-page fetch timeout")
	rootCmd.Flags().DurationP("delay", "r", 300*time.Millisecond, "Delay between page fetches")
	rootCmd.Flags().StringP("user-agent", "u", "", "Override the HTTP User-Agent header")

	// CLI flags
	rootCmd.Flags().IntP("concurrency", "c", 1, "Parallel audits when several URLs are given")
	rootCmd.Flags().StringP("database", "d", "", "SQLite file for storing audit history (empty disables)")
	rootCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.Flags().String("log-file", "", "Log file path (empty logs to console only)")

	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"max_pages", "max-pages"},
		{"max_links_to_consider", "max-links"},
		{"max_fetch_attempts", "max-fetches"},
		{"aggregate_word_limit", "word-limit"},
		{"fetch_timeout", "timeout"},
		{"request_delay", "delay"},
		{"user_agent", "user-agent"},
		{"concurrency", "concurrency"},
		{"database_path", "database"},
		{"log_level", "log-level"},
		{"log_file", "log-file"},
	}

	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.Flags().Lookup(bind.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("skrapa")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SKRAPA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func showCurrentConfig(cfg *config.AuditConfig) error {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: configuration validation failed: %v\n\n", err)
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Printf("# Current skrapa configuration\n")
	fmt.Printf("# Generated at: %s\n", time.Now().Format(time.RFC3339))
	fmt.Printf("# Config file search path: ./skrapa.yml, env prefix: SKRAPA_\n\n")
	fmt.Print(string(yamlData))
	return nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	showConfig, _ := cmd.Flags().GetBool("show-config")
	pretty, _ := cmd.Flags().GetBool("pretty")
	historyN, _ := cmd.Flags().GetInt("history")

	cfg := config.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if showConfig {
		return showCurrentConfig(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logging.SetDefault(logging.Options{
		Level:      cfg.LogLevel,
		Format:     "text",
		FilePath:   cfg.LogFile,
		MaxSizeMB:  50,
		MaxBackups: 3,
		Console:    true,
	}); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}

	var store *storage.AuditStore
	if cfg.DatabasePath != "" {
		s, err := storage.NewAuditStore(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open audit store: %w", err)
		}
		defer func() { _ = s.Close() }()
		store = s
	}

	if historyN > 0 {
		return printHistory(store, historyN)
	}

	if len(args) == 0 {
		return fmt.Errorf("no URLs provided\nUsage: %s [URLs...]", os.Args[0])
	}

	return auditAll(cmd, cfg, store, args, pretty)
}

// auditAll runs one isolated crawl per URL, in parallel up to the
// configured concurrency, and prints results in input order.
func auditAll(cmd *cobra.Command, cfg *config.AuditConfig, store *storage.AuditStore, urls []string, pretty bool) error {
	results := make([]*scrape.WebsiteContent, len(urls))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(cfg.Concurrency)

	for i, rawURL := range urls {
		g.Go(func() error {
			scraper := scrape.New(cfg)
			defer scraper.Close()

			content, err := scraper.ScrapeWebsite(ctx, rawURL)
			if err != nil {
				return fmt.Errorf("audit of %s failed: %w", rawURL, err)
			}
			results[i] = content
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for _, content := range results {
		if store != nil {
			if id, err := store.SaveAudit(content); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to store audit for %s: %v\n", content.URL, err)
			} else {
				fmt.Fprintf(os.Stderr, "Stored audit %d for %s\n", id, content.URL)
			}
		}

		var (
			out []byte
			err error
		)
		if pretty {
			out, err = json.MarshalIndent(content, "", "  ")
		} else {
			out, err = json.Marshal(content)
		}
		if err != nil {
			return fmt.Errorf("failed to encode result for %s: %w", content.URL, err)
		}
		fmt.Println(string(out))
	}

	return nil
}

func printHistory(store *storage.AuditStore, n int) error {
	if store == nil {
		return fmt.Errorf("--history requires --database")
	}

	audits, err := store.RecentAudits(n)
	if err != nil {
		return err
	}
	if len(audits) == 0 {
		fmt.Println("No stored audits.")
		return nil
	}

	for _, a := range audits {
		fmt.Printf("%6d  %-40s  %5d words  %d pages  %s\n",
			a.ID, a.URL, a.WordCount, a.SampledPages, a.CreatedAt.Format(time.RFC3339))
	}
	return nil
}
