// @MX:ANCHOR: [AUTO] main is the moai-dispatch entry point. It exits with status 1 on error.
// @MX:REASON: sole entry point of the binary; delegates to the cli package
package main

import (
	"os"

	"github.com/modu-ai/moai-dispatch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
