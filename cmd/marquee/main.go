package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/marquee/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file path (default ~/.config/marquee/config.toml)")
	filterMode := flag.String("filter", "", "filter mode: remote or local (overrides config)")
	debounce := flag.Duration("debounce", 0, "delay before a query edit is sent, e.g. 250ms (overrides config)")
	query := flag.String("query", "", "initial search query")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		FilterMode: *filterMode,
		Debounce:   *debounce,
		Query:      *query,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "marquee: %v\n", err)
		return 1
	}
	return 0
}
