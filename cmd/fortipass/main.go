// Command fortipass generates random passwords, rates their strength and
// serves both over a loopback HTTP front end guarded by a single-instance lock.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/fortipass/fortipass-go/internal/instance"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fortipass:", err)
		if errors.Is(err, instance.ErrAlreadyRunning) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
