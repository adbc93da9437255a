// Command authgate runs the authentication gateway over HTTP and offers
// helpers for operating it.
//
//	authgate serve [--dev] [--database-url URL]
//	authgate check-config
//	authgate hash-password < password.txt
//	authgate version
//
// Configuration is read from --config, $AUTHGATE_CONFIG or ./authgate.yaml
// (YAML, or TOML by extension) and then overridden by AUTHGATE_* variables.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Getenv).Execute(); err != nil {
		os.Exit(1)
	}
}
