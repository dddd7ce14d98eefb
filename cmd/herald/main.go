package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/roach88/herald/internal/cli"
)

func main() {
	// Best effort: a missing .env is not an error.
	_ = godotenv.Load()

	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
