package main

import (
	"os"

	"github.com/sheikh-saqib/personal-banking-ledger/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
