package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgallion1/docloc/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := cli.New()
	if err := a.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "docloc: %v\n", err)
		if a.UsageError() {
			return 2
		}
		return 1
	}
	return 0
}
