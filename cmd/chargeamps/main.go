package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"chargeamps/internal/clients"
	"chargeamps/internal/command"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	// a missing .env is the normal case
	_ = godotenv.Load(envFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := command.App(nil)
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		if clients.StatusCode(err) == http.StatusUnauthorized {
			fmt.Fprintln(os.Stderr, "hint: check username, password and api_key")
		}
		os.Exit(1)
	}
}
