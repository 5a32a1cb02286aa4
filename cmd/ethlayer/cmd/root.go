// Package cmd wires the client library into a small query CLI: every
// subcommand loads the configuration, dials the configured endpoint and runs
// one operation against the assembled stack.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ethlayer/ethlayer"
	"github.com/ethlayer/ethlayer/pkg/config"
	"github.com/ethlayer/ethlayer/pkg/logging"
)

// RootCmd builds the command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ethlayer",
		Short: "Query an Ethereum node through the layered client",
	}

	for _, cmd := range []*cobra.Command{
		chainIDCmd(),
		blockNumberCmd(),
		balanceCmd(),
		resolveCmd(),
		lookupCmd(),
		logsCmd(),
	} {
		config.AddFlags(cmd)
		root.AddCommand(cmd)
	}
	return root
}

// dial loads and validates the configuration, then assembles a client.
func dial(cmd *cobra.Command) (*ethlayer.Client, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(cfg.Log)
	return ethlayer.Dial(cmd.Context(), cfg, ethlayer.WithLogger(logger))
}
