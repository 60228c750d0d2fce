package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/amcframework/amc/cnf"
	"github.com/amcframework/amc/config"
	"github.com/amcframework/amc/eval"
	"github.com/amcframework/amc/guard"
	"github.com/amcframework/amc/log"
	"github.com/amcframework/amc/semiring"
)

// loadConfig reads the configured file, a missing default config file falls
// back to the builtin defaults
func loadConfig() (*config.Config, error) {
	conf, err := config.ParseConfig(config.ConfigPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return conf, nil
}

func openInstance(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// EvaluateCmd returns the command evaluating a single instance from a file or
// from stdin
func EvaluateCmd() *cobra.Command {
	var strategy string
	var preprocess bool
	cmd := &cobra.Command{
		Use:   "evaluate [instance_file]",
		Short: "Evaluate an extended CNF instance, use - to read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to parse config: %s", err)
			}
			log.Init(conf.LogConfig)
			termCh := guard.HandleSignals(log.DefaultLogger)

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

			type outcome struct {
				values []semiring.Value
				err    error
			}
			resCh := make(chan outcome, 1)
			go func() {
				values, err := dispatcher.Evaluate(instance, strategy, preprocess)
				resCh <- outcome{values: values, err: err}
			}()

			select {
			case <-termCh:
				return errors.New("interrupted")
			case res := <-resCh:
				if res.err != nil {
					return res.err
				}
				_, _, _, outer := instance.WeightsView()
				for _, v := range res.values {
					fmt.Fprintln(cmd.OutOrStdout(), outer.Format(v))
				}
				return nil
			}
		},
	}
	cmd.Flags().StringVarP(&strategy, "strategy", "s", eval.StrategyFlexible, "Evaluation strategy, flexible or compilation")
	cmd.Flags().BoolVarP(&preprocess, "preprocess", "p", false, "Preprocess the instance before evaluation")
	return cmd
}
