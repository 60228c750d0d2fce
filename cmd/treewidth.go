package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amcframework/amc/cnf"
	"github.com/amcframework/amc/eval"
	"github.com/amcframework/amc/guard"
	"github.com/amcframework/amc/log"
	"github.com/amcframework/amc/td"
)

// TreewidthCmd returns the command decomposing the primal graph of an
// instance and reporting the width found within the time budget
func TreewidthCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "treewidth [instance_file]",
		Short: "Compute a tree decomposition of the primal graph of an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to parse config: %s", err)
			}
			log.Init(conf.LogConfig)
			guard.HandleSignals(log.DefaultLogger)

			in, err := openInstance(args[0])
			if err != nil {
				return fmt.Errorf("failed to open instance: %s", err)
			}
			instance, err := cnf.Parse(in)
			in.Close()
			if err != nil {
				return fmt.Errorf("failed to parse instance: %s", err)
			}

			dispatcher := eval.NewDispatcher(conf, log.DefaultLogger)
			defer dispatcher.Close()
			t, err := td.FromGraph(instance.PrimalGraph(), conf, dispatcher.Guard())
			if err != nil {
				return err
			}
			if full {
				fmt.Fprint(cmd.OutOrStdout(), t.String())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "width %d\n", t.Width)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&full, "full", "f", false, "Print the whole decomposition instead of only the width")
	return cmd
}
