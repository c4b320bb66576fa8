package main

import (
	"fmt"
	"os"

	"github.com/okian/skillpulse/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Run(version); err != nil {
		fmt.Fprintln(os.Stderr, "skillctl:", err)
		os.Exit(1)
	}
}
