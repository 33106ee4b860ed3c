package main

import (
	"github.com/joho/godotenv"

	"logmerge/cmd/logmerge-cli/cmd"
)

func main() {
	// Load .env if present; environment variables win otherwise
	_ = godotenv.Load()

	cmd.Execute()
}
