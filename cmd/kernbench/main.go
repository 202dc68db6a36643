package main

import (
	"fmt"
	"os"
	"runtime/debug"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			// The stack goes first: a worker's parent reports only the last
			// stderr line as the failure reason.
			fmt.Fprintf(os.Stderr, "%s\nkernbench: panic: %v\n", debug.Stack(), r)
			os.Exit(2)
		}
	}()

	Execute()
}
