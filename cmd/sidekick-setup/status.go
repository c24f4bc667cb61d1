package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the values the Defaults button fills in",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Printf("user_name:     %s\n", cfg.Defaults.UserName)
		fmt.Printf("sidekick_name: %s\n", cfg.Defaults.SidekickName)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the setup state reported by the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c := newClient(cfg)
		st, err := c.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("query %s: %w", c.BaseURL(), err)
		}

		fmt.Printf("Server:          %s\n", c.BaseURL())
		fmt.Printf("Setup completed: %t\n", st.SetupCompleted)
		fmt.Printf("User name:       %s\n", st.UserName)
		fmt.Printf("Sidekick name:   %s\n", st.SidekickName)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the server's settings to defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := newClient(cfg).Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("✓ Settings reset")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(defaultsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)
}
