// Command pulsectl runs maintenance tasks against the Pulse database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pulse/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(nil).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
