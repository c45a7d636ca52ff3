// Command crumbcal is the CRM calendar: a terminal week grid plus scripting
// subcommands over the same event store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, newApp(os.Stdout, os.Stderr), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "crumbcal:", err)
		stop()
		os.Exit(1)
	}
}
