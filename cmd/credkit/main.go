// Command credkit stores and looks up credentials from the command line.
package main

import (
	"os"

	"github.com/n1/credkit/internal/log"
)

const version = "0.1.0-dev"

func main() {
	if err := newApp(os.Stdin, os.Stdout).cli().Run(os.Args); err != nil {
		log.Error().Err(err).Msg("credkit failed")
		os.Exit(1)
	}
}
