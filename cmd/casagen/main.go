// Package main is the entry point for the casagen binary.
package main

import (
	"os"

	"casarrow/pkg/casagen"
)

func main() {
	os.Exit(casagen.Execute())
}
