package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/fortipass/fortipass-go/internal/instance"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether a fortipass server holds the instance lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.cfg.LockFile
			out := cmd.OutOrStdout()

			held, pid, err := instance.Probe(path)
			if err != nil {
				return err
			}

			switch {
			case held && pid > 0:
				fmt.Fprintf(out, "running (pid %d, lock %s)\n", pid, path)
			case held:
				fmt.Fprintf(out, "running (lock %s)\n", path)
			default:
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "not running (stale lock file %s)\n", path)
				} else if errors.Is(err, fs.ErrNotExist) {
					fmt.Fprintln(out, "not running")
				} else {
					return err
				}
			}
			return nil
		},
	}
}
