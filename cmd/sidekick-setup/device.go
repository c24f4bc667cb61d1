package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jetsetgo/sidekick-setup/internal/settings"
)

// Device menu operations act on the local store directly

var muteCmd = &cobra.Command{
	Use:   "mute",
	Short: "Toggle the device mute setting",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := settings.Open(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		muted, err := settings.ToggleMute(cmd.Context(), store)
		if err != nil {
			return err
		}
		fmt.Printf("Mute: %t\n", muted)
		return nil
	},
}

var coreCmd = &cobra.Command{
	Use:   "core",
	Short: "Switch between the default and custom core",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := settings.Open(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		core, err := settings.ToggleCoreType(cmd.Context(), store)
		if err != nil {
			return err
		}
		fmt.Printf("Core: %s\n", core)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(muteCmd)
	rootCmd.AddCommand(coreCmd)
}
