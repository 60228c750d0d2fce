package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amcframework/amc/apiserver"
	"github.com/amcframework/amc/eval"
	"github.com/amcframework/amc/guard"
	"github.com/amcframework/amc/log"
)

// ServeCmd returns the command running the evaluation API server until a
// termination signal arrives
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the evaluation API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to parse config: %s", err)
			}
			log.Init(conf.LogConfig)
			termCh := guard.HandleSignals(log.DefaultLogger)

			dispatcher := eval.NewDispatcher(conf, log.DefaultLogger)
			defer dispatcher.Close()

			server := apiserver.NewAPIServer(conf, dispatcher, log.DefaultLogger)
			server.Start()

			<-termCh
			server.Stop()
			return nil
		},
	}
}
