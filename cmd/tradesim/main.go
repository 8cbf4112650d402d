package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/quantfold/tradesim/cmd/tradesim/cmd"
)

func main() {
	// Optional .env for local overrides; absence is not an error.
	godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
