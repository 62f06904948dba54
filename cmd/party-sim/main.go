package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/bingonight/internal/partysim"
)

// Default configuration constants.
const (
	defaultPlayers    = 30
	defaultRounds     = 3
	defaultTimeout    = 10 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		secret  = flag.String("secret", os.Getenv("BINGO_HOST_SECRET"), "Host secret")
		players = flag.Int("players", defaultPlayers, "Number of simulated players")
		rounds  = flag.Int("rounds", defaultRounds, "Max rounds of the session")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile = flag.String("log", "", "Log file for simulation output (default: party_sim_TIMESTAMP.log)")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		partysim.ShowHelp()
		return
	}

	if err := partysim.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &partysim.Config{
		BaseURL:    *baseURL,
		HostSecret: *secret,
		Players:    *players,
		MaxRounds:  *rounds,
		Timeout:    *timeout,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}
	if _, err := partysim.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
