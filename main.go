package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/kianm04/OpenProjectEkster-sub016/cmd"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
)

func main() {
	err := cmd.Execute()
	if err == nil {
		return
	}
	// Commands report their own failures; cobra's flag and argument
	// errors are printed here
	var ce *cli.CodeError
	if !errors.As(err, &ce) {
		fmt.Fprintf(os.Stderr, "Error: %v\nRun 'op --help' for usage.\n", err)
		os.Exit(cli.ExitUsage)
	}
	os.Exit(cli.ExitCode(err))
}
