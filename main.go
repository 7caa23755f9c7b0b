// Package main is the entry point for the Aegis authorization and security
// event service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"aegis/bootstrap"
)

// run initializes and starts the service.
func run() error {
	configPath := flag.String("config", "", "path to config file (default: search ./aegis.yaml, /etc/aegis/aegis.yaml)")
	flag.Parse()

	ctx := context.Background()

	app, err := bootstrap.NewApp(ctx, *configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.Start(ctx); err != nil {
		app.Shutdown()
		return fmt.Errorf("failed to start application: %w", err)
	}

	app.WaitForShutdown()
	app.Shutdown()

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}
