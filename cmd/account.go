package cmd

import (
	"context"
	"fmt"

	"github.com/bnema/potato-cli/internal/application"
	"github.com/bnema/potato-cli/internal/batch"
	"github.com/bnema/potato-cli/internal/domain"
	"github.com/spf13/cobra"
)

const defaultRegisterCount = 10

func newAccountCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Provision and manage accounts",
	}

	cmd.AddCommand(
		newAccountRegisterCmd(app),
		newAccountLoginCmd(app),
		newAccountCodeCmd(app),
		newAccountListCmd(app),
		newAccountRefreshCmd(app),
		newAccountDeleteCmd(app),
	)

	return cmd
}

func newAccountRegisterCmd(app *app) *cobra.Command {
	var count int
	var smsService string
	var apiKey string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register accounts in bulk through an SMS provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var result batch.Result[domain.Account]
			err := runBatchSpinner(cmd.Context(), cmd.ErrOrStderr(), "Registering accounts...", func(ctx context.Context, progress batch.ProgressFunc) error {
				var err error
				result, err = app.provisioning.BatchRegister(ctx, application.BatchRegisterCommand{
					Count:      count,
					SMSService: smsService,
					APIKey:     apiKey,
				}, progress)
				return err
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "registered %d of %d accounts\n", result.SucceededCount, result.RequestedCount)
			return err
		},
	}

	cmd.Flags().IntVar(&count, "count", defaultRegisterCount, "Number of accounts to register")
	cmd.Flags().StringVar(&smsService, "sms-service", "", "SMS provider used for verification codes")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "SMS provider API key (defaults to the key stored with 'sms set-key')")
	_ = cmd.MarkFlagRequired("sms-service")

	return cmd
}

func newAccountLoginCmd(app *app) *cobra.Command {
	var phone string
	var code string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Add an account by signing in with a verification code",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := app.provisioning.ManualLogin(cmd.Context(), application.ManualLoginCommand{
				Phone: phone,
				Code:  code,
			}, nil)
			if err != nil {
				return err
			}
			if result.SucceededCount == 0 {
				return fmt.Errorf("login %s: %w", phone, domain.ErrUnitFailure)
			}

			account := result.Records[0]
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "logged in %s as %s (%s)\n", account.Phone, account.Username, account.ID)
			return err
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&code, "code", "", "Verification code")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func newAccountCodeCmd(app *app) *cobra.Command {
	var phone string

	cmd := &cobra.Command{
		Use:   "code",
		Short: "Request a verification code for a phone number",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.provisioning.RequestCode(cmd.Context(), phone); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "verification code sent to %s\n", phone)
			return err
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}

func newAccountListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts, err := app.provisioning.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, accounts)
			}

			for _, account := range accounts {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\n",
					account.ID,
					sanitizeForTerminal(account.Username),
					valueOrDash(account.Phone),
					account.Status,
					formatOptionalTime(account.CreatedAt),
				)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func newAccountRefreshCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Re-check the status of every stored account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := app.provisioning.Refresh(cmd.Context())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "checked %d of %d accounts, %d changed\n", result.Checked, len(result.Accounts), result.Changed)
			return err
		},
	}
}

func newAccountDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <account-id>",
		Short: "Delete a stored account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.provisioning.Delete(cmd.Context(), domain.AccountID(args[0])); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return err
		},
	}
}
