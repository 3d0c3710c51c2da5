// Package main is the grasp-eval command.
package main

import (
	"fmt"
	"os"

	"go.viam.com/grasp/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
