package main

import (
	"fmt"
	"os"

	"hufschlaeger.net/timing-client/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Fehler: %v\n", err)
		os.Exit(1)
	}
}
