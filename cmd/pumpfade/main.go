package main

import (
	"fmt"
	"os"

	"pumpfade/cmd/pumpfade/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
