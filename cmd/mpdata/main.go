// Command mpdata is a command-line driver for the mpdatago advection
// and pressure-projection solver.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/mpdatago/internal/cli"
)

func main() {
	if err := cli.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
