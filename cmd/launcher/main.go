package main

import (
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	// maxprocs.Set only fails on an invalid GOMAXPROCS env value
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
