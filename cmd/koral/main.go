package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/koral-build/koral/internal/app"
	"github.com/koral-build/koral/internal/cli"
	"github.com/koral-build/koral/internal/hclcfg"
	"github.com/koral-build/koral/internal/lockfile"
)

// main is the entrypoint for the koral command.
func main() {
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, lockfile.ErrOutOfDate) {
			// Stale locks get their own exit code so CI can tell "needs
			// re-locking" from a resolution failure.
			os.Exit(3)
		}
		os.Exit(1)
	}
}

// run encapsulates the application logic for easier testing.
func run(outW, errW io.Writer, args []string) error {
	config, shouldExit, err := cli.Parse(args, errW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	koral := app.NewApp(outW, errW, config, hclcfg.NewLoader(), nil)
	return koral.Run(context.Background())
}
