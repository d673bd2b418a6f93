package cmd

import (
	"github.com/spf13/cobra"

	"github.com/go-arrower/productstore"
)

const name = "productstore"

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: "Productstore serves versioned products over http.",
		Long: `A product composite api, backed by memory, postgres, mysql, or sqlite.
Updates are protected against lost writes by optimistic concurrency control.`,
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
}

// NewProductStoreCLI initialises the complete cli with its commands and returns the root command.
func NewProductStoreCLI(vip *productstore.Viper, newApp NewAppFunc) *cobra.Command {
	rootCmd := newRootCmd()
	rootCmd.AddCommand(Version(name))
	rootCmd.AddCommand(Serve(vip, newApp))

	return rootCmd
}
