package main

import (
	"os"

	"github.com/osdesk/ostrack/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
