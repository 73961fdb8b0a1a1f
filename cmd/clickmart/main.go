// Package main is the entry point for clickmart.
package main

import (
	"fmt"
	"os"

	"github.com/clickmart/clickmart/internal/cli"

	// Register pipeline stages
	_ "github.com/clickmart/clickmart/internal/stages/cleaned"
	_ "github.com/clickmart/clickmart/internal/stages/products"
	_ "github.com/clickmart/clickmart/internal/stages/sessions"
	_ "github.com/clickmart/clickmart/internal/stages/trends"
	_ "github.com/clickmart/clickmart/internal/stages/users"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
