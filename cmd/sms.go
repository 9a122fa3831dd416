package cmd

import (
	"fmt"

	"github.com/bnema/potato-cli/internal/application"
	"github.com/spf13/cobra"
)

func newSMSCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sms",
		Short: "Manage SMS provider API keys",
	}

	cmd.AddCommand(newSMSSetKeyCmd(app), newSMSRemoveKeyCmd(app))

	return cmd
}

func newSMSSetKeyCmd(app *app) *cobra.Command {
	var apiKey string

	cmd := &cobra.Command{
		Use:   "set-key <sms-service>",
		Short: "Store the API key for an SMS provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.provisioning.SetSMSKey(cmd.Context(), application.SetSMSKeyCommand{
				SMSService: args[0],
				APIKey:     apiKey,
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "stored api key for %s\n", args[0])
			return err
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key value")
	_ = cmd.MarkFlagRequired("api-key")

	return cmd
}

func newSMSRemoveKeyCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-key <sms-service>",
		Short: "Remove the stored API key for an SMS provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.provisioning.RemoveSMSKey(cmd.Context(), args[0]); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "removed api key for %s\n", args[0])
			return err
		},
	}
}
