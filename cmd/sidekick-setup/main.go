package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jetsetgo/sidekick-setup/internal/client"
	"github.com/jetsetgo/sidekick-setup/internal/config"
)

// Version is set during build with -ldflags
var version = "dev"

var (
	configPath string
	serverURL  string
)

var rootCmd = &cobra.Command{
	Use:   "sidekick-setup",
	Short: "First-run setup for a Sidekick device",
	Long: `sidekick-setup serves the settings page a Sidekick shows on first boot,
stores the owner and sidekick names, and offers headless and terminal
clients for the same form.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sidekick-setup version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: search config.yaml, configs/config.yaml, /etc/sidekick/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "", "setup server base URL (overrides client.base_url)")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the explicit --config file, or searches the default
// locations and falls back to built-in defaults
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load config file: %v", err)
		log.Println("Using default configuration")
		cfg = config.Default()
		cfg.ConfigPath = "config.yaml"
	}
	return cfg, nil
}

func newClient(cfg *config.Config) *client.Client {
	base := cfg.Client.BaseURL
	if serverURL != "" {
		base = serverURL
	}
	timeout := cfg.Client.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return client.New(base, timeout)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
