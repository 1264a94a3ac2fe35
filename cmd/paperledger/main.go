package main

import (
	"github.com/joho/godotenv"

	"github.com/rustyeddy/paperledger/internal/cli"
)

func main() {
	// Optional .env for local runs; absence is not an error.
	_ = godotenv.Load()

	cli.Execute()
}
