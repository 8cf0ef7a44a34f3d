package main

import (
	"os"

	"github.com/rustyeddy/expenselab/cmd/expenselab/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
