package main

import (
	"fmt"
	"os"

	cmds "github.com/ethlayer/ethlayer/cmd/ethlayer/cmd"
)

func main() {
	rootCmd := cmds.RootCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
