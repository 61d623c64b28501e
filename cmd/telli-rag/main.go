package main

import (
	"github.com/joho/godotenv"

	"github.com/FWU-DE/telli-dialog-sub001/internal/adapters/driving/cli"
)

func main() {
	// A missing .env file is fine; the environment may carry everything.
	_ = godotenv.Load()

	cli.Execute()
}
