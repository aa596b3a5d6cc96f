package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/hammer/internal/cli"
)

func main() {
	// A minimal logger covers everything that happens before the app
	// configures the real one.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run keeps the real logic testable: it builds the command tree, feeds it
// the given arguments, and returns any error instead of exiting.
func run(outW io.Writer, args []string) error {
	root := cli.NewRootCmd(outW)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}
