package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexshd/feasibility/internal/cli"
	"github.com/alexshd/feasibility/internal/exitcode"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.Execute(ctx)
	if err == nil {
		return
	}

	switch {
	case ctx.Err() != nil:
		fmt.Fprintln(os.Stderr, "\nOperation cancelled by user")
		stop()
		exitcode.Exit(exitcode.Interrupted)
	case errors.Is(err, exitcode.ErrInfeasible):
		// The verdicts are already on stdout.
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	stop()
	exitcode.ExitWithError(err)
}
