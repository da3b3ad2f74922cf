package app

import (
	"errors"
	"fmt"
)

// Command is one koral subcommand.
type Command string

const (
	CommandResolve   Command = "resolve"
	CommandLock      Command = "lock"
	CommandCheck     Command = "check"
	CommandTree      Command = "tree"
	CommandWhy       Command = "why"
	CommandConflicts Command = "conflicts"
)

// Config holds all the configuration an App instance needs to run.
type Config struct {
	Command      Command
	ManifestPath string
	// Variant restricts the command to one variant; empty means all.
	Variant string
	// Coordinate is the "group:artifact" (or bare artifact) argument of the
	// why command.
	Coordinate string

	LogFormat string
	LogLevel  string
	Workers   int
	// MaxDepth limits tree output depth; 0 means unlimited.
	MaxDepth int
	// Update lets resolve and lock proceed past a stale lock and rewrite it.
	Update bool
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ManifestPath == "" {
		return nil, errors.New("ManifestPath is a required configuration field and cannot be empty")
	}
	switch cfg.Command {
	case CommandResolve, CommandLock, CommandCheck, CommandTree, CommandConflicts:
	case CommandWhy:
		if cfg.Coordinate == "" {
			return nil, errors.New("the why command needs a coordinate argument")
		}
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &cfg, nil
}
