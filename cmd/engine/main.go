// ====================================
// File: cmd/engine/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rovshanmuradov/pump-core/internal/app"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to engine config")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := app.NewRunner()
	if err := runner.Initialize(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize engine: %v\n", err)
		os.Exit(1)
	}

	if err := runner.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "engine execution error: %v\n", err)
		os.Exit(1)
	}
}
