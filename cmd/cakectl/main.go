package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/cakehouse/storefront/pkg/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: load config:", err)
		os.Exit(1)
	}

	if err := newRootCmd(&app{cfg: cfg}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
