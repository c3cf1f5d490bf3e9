// Command agoras publishes and schedules posts across social
// platforms.
package main

import (
	"github.com/joho/godotenv"

	"github.com/agoraslabs/agoras-cli/internal/adapters/driving/cli"
	"github.com/agoraslabs/agoras-cli/internal/logger"
)

func main() {
	// A .env in the working directory seeds credential env vars before
	// resolution; absence is not an error.
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded environment from .env")
	}

	cli.Execute()
}
