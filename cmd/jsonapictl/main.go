package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const ErrExitCode = 1

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		cancel()
		os.Exit(ErrExitCode)
	}
}
