// Command stembed decides whether process implementations embed into causal
// spacetimes. See internal/cli for the subcommands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/stembed/internal/cli"
)

func main() {
	// Interrupts cancel in-flight searches, which then report timed_out.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		// Subcommands print their own formatted errors; cobra-level
		// failures (unknown flags, bad --format) land here.
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
