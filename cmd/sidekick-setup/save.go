package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jetsetgo/sidekick-setup/internal/controller"
	"github.com/jetsetgo/sidekick-setup/internal/form"
	"github.com/jetsetgo/sidekick-setup/internal/tui"
)

var (
	saveUserName     string
	saveSidekickName string
	saveUseDefaults  bool
)

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Submit the settings form without a browser",
	Long: `Fills the settings form, presses Save and prints the message the page
would show. Exits non-zero when the save fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ordering, err := controller.ParseOrdering(cfg.Client.Ordering)
		if err != nil {
			return err
		}

		// Unset flags behave like an untouched page
		if !cmd.Flags().Changed("user-name") {
			saveUserName = cfg.Defaults.UserName
		}
		if !cmd.Flags().Changed("sidekick-name") {
			saveSidekickName = cfg.Defaults.SidekickName
		}

		doc := controller.NewSettingsDocument(saveUserName, saveSidekickName)
		ctrl, err := controller.New(doc, newClient(cfg),
			controller.WithOrdering(ordering),
			controller.WithDefaults(form.Form{
				UserName:     cfg.Defaults.UserName,
				SidekickName: cfg.Defaults.SidekickName,
			}),
		)
		if err != nil {
			return err
		}
		if saveUseDefaults {
			doc.Button(controller.DefaultsButtonID).Click()
		}

		res := ctrl.Save(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), tui.OverlayText(ctrl.Overlay().HTML()))

		if fail, ok := res.(controller.Failure); ok {
			return fmt.Errorf("save failed (%s): %w", fail.Reason, fail)
		}
		return nil
	},
}

func init() {
	saveCmd.Flags().StringVarP(&saveUserName, "user-name", "u", "", "owner name")
	saveCmd.Flags().StringVarP(&saveSidekickName, "sidekick-name", "s", "", "sidekick name")
	saveCmd.Flags().BoolVar(&saveUseDefaults, "defaults", false, "press Defaults before saving")
	rootCmd.AddCommand(saveCmd)
}
