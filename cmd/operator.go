package cmd

import (
	"fmt"

	"github.com/bnema/potato-cli/internal/application"
	"github.com/spf13/cobra"
)

func newOperatorCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operator",
		Short: "Manage the operator signed in to this CLI",
	}

	cmd.AddCommand(
		newOperatorRegisterCmd(app),
		newOperatorLoginCmd(app),
		newOperatorLogoutCmd(app),
		newOperatorWhoamiCmd(app),
		newOperatorPasswdCmd(app),
	)

	return cmd
}

func newOperatorRegisterCmd(app *app) *cobra.Command {
	var username string
	var password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an operator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			operator, err := app.sessions.Register(cmd.Context(), application.RegisterOperatorCommand{
				Username: username,
				Password: password,
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "registered operator %s (%s)\n", operator.Username, operator.ID)
			return err
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Operator username (at least 3 characters)")
	cmd.Flags().StringVar(&password, "password", "", "Operator password (at least 6 characters)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newOperatorLoginCmd(app *app) *cobra.Command {
	var username string
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as an operator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			operator, err := app.sessions.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", operator.Username)
			return err
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Operator username")
	cmd.Flags().StringVar(&password, "password", "", "Operator password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newOperatorLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out the current operator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.sessions.Logout(cmd.Context()); err != nil {
				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return err
		},
	}
}

func newOperatorWhoamiCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in operator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			operator, err := app.sessions.CurrentOperator(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "username:\t%s\n", operator.Username)
			_, _ = fmt.Fprintf(out, "id:\t%s\n", operator.ID)
			_, err = fmt.Fprintf(out, "last login:\t%s\n", formatOptionalTime(operator.LastLoginAt))
			return err
		},
	}
}

func newOperatorPasswdCmd(app *app) *cobra.Command {
	var oldPassword string
	var newPassword string

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the signed-in operator's password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := app.sessions.ChangePassword(cmd.Context(), application.ChangePasswordCommand{
				OldPassword: oldPassword,
				NewPassword: newPassword,
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "password changed")
			return err
		},
	}

	cmd.Flags().StringVar(&oldPassword, "old", "", "Current password")
	cmd.Flags().StringVar(&newPassword, "new", "", "New password (at least 6 characters)")
	_ = cmd.MarkFlagRequired("old")
	_ = cmd.MarkFlagRequired("new")

	return cmd
}
