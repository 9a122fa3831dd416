package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "potato",
		Short:         "Potato CLI: bulk account provisioning and user collection",
		Long:          "potato registers and logs in messaging accounts in bulk, collects nearby and group users, and exports what it collected. Every operation except operator management requires a signed-in operator.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newOperatorCmd(app),
		newAccountCmd(app),
		newSMSCmd(app),
		newCollectCmd(app),
		newStatsCmd(app),
	)

	return rootCmd
}
