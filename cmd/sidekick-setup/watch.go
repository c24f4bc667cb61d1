package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jetsetgo/sidekick-setup/internal/api"
	"github.com/jetsetgo/sidekick-setup/internal/client"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream save and reset events from the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		c := newClient(cfg)
		fmt.Printf("Watching %s (Ctrl+C to stop)\n", c.BaseURL())

		err = c.Watch(ctx, client.WatchOptions{
			ReconnectDelay: cfg.Client.WSReconnectDelay,
			MaxReconnect:   cfg.Client.WSMaxReconnect,
		}, printEvent)
		if ctx.Err() != nil {
			return nil
		}
		return err
	},
}

func printEvent(ev client.Event) {
	ts := ev.Time.Local().Format("15:04:05")
	switch ev.Type {
	case api.EventSettingsSaved:
		fmt.Printf("%s  saved   user=%q sidekick=%q id=%s\n", ts, ev.UserName, ev.SidekickName, ev.ID)
	case api.EventSaveFailed:
		fmt.Printf("%s  failed  %s id=%s\n", ts, ev.Error, ev.ID)
	case api.EventSettingsReset:
		fmt.Printf("%s  reset\n", ts)
	default:
		fmt.Printf("%s  %s\n", ts, ev.Type)
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
