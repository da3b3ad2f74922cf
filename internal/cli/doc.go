// Package cli parses command-line arguments, validates user input, and
// handles process-level concerns like exit codes. It translates the koral
// subcommands and flags into the application's internal configuration.
package cli
