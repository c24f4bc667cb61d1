package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jetsetgo/sidekick-setup/internal/controller"
	"github.com/jetsetgo/sidekick-setup/internal/form"
	"github.com/jetsetgo/sidekick-setup/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Fill in the settings form in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ordering, err := controller.ParseOrdering(cfg.Client.Ordering)
		if err != nil {
			return err
		}

		c := newClient(cfg)
		userName, sidekickName := cfg.Defaults.UserName, cfg.Defaults.SidekickName
		if st, err := c.Status(cmd.Context()); err == nil {
			userName, sidekickName = st.UserName, st.SidekickName
		}

		doc := controller.NewSettingsDocument(userName, sidekickName)
		ctrl, err := controller.New(doc, c,
			controller.WithOrdering(ordering),
			controller.WithContext(cmd.Context()),
			controller.WithDefaults(form.Form{
				UserName:     cfg.Defaults.UserName,
				SidekickName: cfg.Defaults.SidekickName,
			}),
		)
		if err != nil {
			return err
		}

		p := tea.NewProgram(tui.New(cmd.Context(), doc, ctrl), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("failed to start the terminal user interface: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
