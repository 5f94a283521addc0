package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"videolens/internal/services"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode reports 2 for problems the user can fix locally (configuration or
// invalid input) and 1 for everything else.
func exitCode(err error) int {
	if errors.Is(err, services.ErrConfiguration) || errors.Is(err, services.ErrValidation) {
		return 2
	}
	return 1
}
