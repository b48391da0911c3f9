// Copyright (C) 2025 The uistream Authors. All Rights Reserved.

package main

import (
	"fmt"
	"io"

	"github.com/siciyuan404/uistream"
	"github.com/spf13/cobra"
	"github.com/tailscale/hujson"
)

func newCheckCmd() *cobra.Command {
	var useHujson bool

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a complete JSON document",
		Long: `Validate a complete JSON document.

The input is parsed in full; on success "ok" is printed, otherwise the
error with its line, column, and path is reported and the exit status is
nonzero.

With --hujson, the input may use the HuJSON extensions (comments and
trailing commas) and is standardized to plain JSON before parsing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, done, err := openInput(args)
			if err != nil {
				return err
			}
			defer done()

			data, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			if useHujson {
				data, err = hujson.Standardize(data)
				if err != nil {
					return fmt.Errorf("standardize: %w", err)
				}
			}

			if _, err := uistream.Complete(string(data)); err != nil {
				return err
			}
			log.Infof("parsed %d bytes", len(data))
			fmt.Println("ok")
			return nil
		},
	}

	cmd.Flags().BoolVar(&useHujson, "hujson", false, "standardize HuJSON input before parsing")

	return cmd
}
