package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	err := NewRootCmd().Execute()
	if err == nil {
		return
	}

	if !errors.Is(err, errTextsDiffer) {
		_, _ = fmt.Fprintln(os.Stderr, err)
	}

	os.Exit(1)
}
