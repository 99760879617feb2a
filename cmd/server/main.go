package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand(DefaultOptions()).Execute(); err != nil {
		// A failed invocation already printed its JSON response.
		if !errors.Is(err, errInvocationFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
