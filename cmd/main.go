package cmd

import (
	"github.com/spf13/cobra"

	"github.com/amcframework/amc/config"
)

// RootCmd returns the root cobra command of the evaluation tool
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "amc",
		Short: "Evaluate algebraic model counting instances",
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.PersistentFlags().StringVarP(&config.ConfigPath, "config", "c", "config.json", "Config file path")
	cmd.AddCommand(EvaluateCmd())
	cmd.AddCommand(TreewidthCmd())
	cmd.AddCommand(ServeCmd())
	return cmd
}
