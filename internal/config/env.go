package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; every file that exists is loaded.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads KEY=VALUE pairs so they can be referenced as ${KEY} in
// the YAML. godotenv.Load never overrides variables already in the process
// environment, so the shell always wins.
func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			fmt.Fprintf(os.Stderr, "Note: could not load %s: %v\n", name, err)
		}
	}
}
