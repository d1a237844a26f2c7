package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/runnerr0/retrace/internal/cli"
)

var version = "0.3.0"

func main() {
	// Conventional interrupt exit code.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupts
		os.Exit(130)
	}()

	if err := cli.Run(version); err != nil {
		fmt.Fprintf(os.Stderr, "retrace: %v\n", err)
		os.Exit(1)
	}
}
