// Package main is the entry point for the modsync CLI.
package main

import "modsync.dev/pkg/modsync/cmd"

func main() {
	cmd.Execute()
}
