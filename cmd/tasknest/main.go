package main

import (
	"context"
	"fmt"
	"os"

	"tasknest/internal/cli"
	"tasknest/internal/config"
	"tasknest/internal/storage"
)

func main() {
	cfg := config.Load()
	if err := cli.Run(context.Background(), cfg, storage.Open, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
