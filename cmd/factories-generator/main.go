// Package main provides the CLI entrypoint for factories-generator.
//
// factories-generator scans Go packages for types carrying
// //factories:provider (directly or through annotation types), resolves the
// provider interface of each and writes the merged registries
// META-INF/spring.factories and META-INF/spring/aot.factories:
//   - gen: generate the registries and the dependency manifest
//   - check: verify that the registries on disk are up to date
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
