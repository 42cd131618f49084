// Command mintctl operates an issuance controller stored in a local bbolt
// database: deployment, minting, administration and withdrawals.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfsorg/libmint-go/revert"
)

// Build information injected via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorMessage(err))
		os.Exit(exitCode(err))
	}
}

// Exit codes.
const (
	exitFailure = 1
	exitRevert  = 2
)

// errorMessage prints a rejected operation as its bare reason string.
func errorMessage(err error) string {
	if reason, ok := revert.Reason(err); ok {
		return reason
	}
	return "mintctl: " + err.Error()
}

func exitCode(err error) int {
	if revert.Is(err) {
		return exitRevert
	}
	return exitFailure
}
