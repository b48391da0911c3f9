// Copyright (C) 2025 The uistream Authors. All Rights Reserved.

// Program uistream parses JSON values delivered as text streams, reporting
// partial values and pending paths as input arrives.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("uistream")

func main() {
	var verbosity int

	rootCmd := &cobra.Command{
		Use:   "uistream",
		Short: "Incrementally parse streamed JSON values",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			commonlog.Configure(verbosity, nil)
		},
	}
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")

	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newCheckCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openInput returns the input reader for a command taking an optional file
// argument, defaulting to stdin.
func openInput(args []string) (*os.File, func(), error) {
	if len(args) == 0 {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
