// Command crawler extracts product pages into canonical records and gates
// each batch on its quality report.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Exit codes
const (
	exitOK         = 0
	exitError      = 1
	exitGateFailed = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errGateFailed):
		fmt.Fprintln(os.Stderr, err)
		return exitGateFailed
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitError
	}
}
