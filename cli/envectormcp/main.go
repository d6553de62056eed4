package main

import (
	"os"

	"github.com/joho/godotenv"

	envectormcpcmder "github.com/envectorhq/envector-mcp/cmd/envectormcp"
)

func main() {
	// Best effort .env load; real environment variables win.
	_ = godotenv.Load()

	cmd := envectormcpcmder.NewEnvectorCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
