package cmd

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

func chainIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chain-id",
		Short: "Print the chain id of the connected node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			id, err := c.ChainID(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func blockNumberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "block-number",
		Short: "Print the current head block number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			head, err := c.BlockNumber(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), head)
			return nil
		},
	}
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "Print an account balance in wei",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !common.IsHexAddress(args[0]) {
				return fmt.Errorf("not a valid address: %q", args[0])
			}
			c, err := dial(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			balance, err := c.BalanceAt(cmd.Context(), common.HexToAddress(args[0]), nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), balance)
			return nil
		},
	}
}

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name>",
		Short: "Resolve a name to an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			addr, err := c.ResolveName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr.Hex())
			return nil
		},
	}
}

func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <address>",
		Short: "Reverse-resolve an address to its primary name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !common.IsHexAddress(args[0]) {
				return fmt.Errorf("not a valid address: %q", args[0])
			}
			c, err := dial(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			name, err := c.LookupAddress(cmd.Context(), common.HexToAddress(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}
}

func logsCmd() *cobra.Command {
	var (
		address   string
		fromBlock uint64
		toBlock   uint64
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Page through historical logs of a contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := ethereum.FilterQuery{
				FromBlock: new(big.Int).SetUint64(fromBlock),
			}
			if toBlock > 0 {
				q.ToBlock = new(big.Int).SetUint64(toBlock)
			}
			if address != "" {
				if !common.IsHexAddress(address) {
					return fmt.Errorf("not a valid address: %q", address)
				}
				q.Addresses = []common.Address{common.HexToAddress(address)}
			}

			c, err := dial(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			it := c.QueryLogs(cmd.Context(), q)
			for it.Next(cmd.Context()) {
				l := it.Log()
				fmt.Fprintf(cmd.OutOrStdout(), "block=%d tx=%s address=%s topics=%d\n",
					l.BlockNumber, l.TxHash.Hex(), l.Address.Hex(), len(l.Topics))
			}
			return it.Err()
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "contract address to filter on")
	cmd.Flags().Uint64Var(&fromBlock, "from", 0, "first block of the query range")
	cmd.Flags().Uint64Var(&toBlock, "to", 0, "last block of the query range (0 for head)")
	return cmd
}
