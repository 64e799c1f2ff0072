package main

import (
	"fmt"
	"os"

	"github.com/MikeSquared-Agency/Merit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "merit:", err)
		os.Exit(1)
	}
}
