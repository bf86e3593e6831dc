// Command api serves the ledger HTTP API and runs its scheduled jobs.
package main

import (
	"fmt"
	"os"

	"github.com/cartai/ledger/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "ledger api:", err)
		os.Exit(1)
	}
}
