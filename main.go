// The main package for the adafruit-crawler executable.
package main

import (
	"fmt"
	"os"

	"github.com/printdhruv/adafruit-crawler/cmd"
)

// main defers all execution to the Cobra CLI library.
func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
