// Command starpack manages a local Starpack Engine and submits packages and
// deployments to it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bdobrica/starpack/cmd/starpack/commands"
	"github.com/bdobrica/starpack/internal/starpack/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx, commands.NewApp(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorMsg("%v", err))
		stop()
		os.Exit(1)
	}
}
