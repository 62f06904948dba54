package partysim

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/bingonight/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "party_sim_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	log.SetOutput(io.MultiWriter(os.Stdout, file))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the party simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Bingo Night Party Simulator
===========================

Plays a full bingo round against a running service: a host creates a
session, players join concurrently, and every player marks each drawn ball
until the full card is won. The run fails unless each prize went to exactly
one player.

Usage:
  go run ./cmd/party-sim [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -secret string
        Host secret (default $BINGO_HOST_SECRET)
  -players int
        Number of simulated players (default 30)
  -rounds int
        Max rounds of the session (default 3)
  -timeout duration
        HTTP request timeout (default 10s)
  -log string
        Log file for simulation output (default: party_sim_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message
`)
}
