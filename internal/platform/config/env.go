// Package config holds the environment and exit helpers shared by slotted
// commands.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ErrTargetRequired indicates a nil parse target.
var ErrTargetRequired = errors.New("config target is required")

// ParseEnv loads env-tagged fields of target, including nested structs such
// as dispatch.Config.
func ParseEnv(target any) error {
	if target == nil {
		return ErrTargetRequired
	}
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns a T populated from the environment, or the zero T on error.
func Load[T any]() (T, error) {
	var cfg T
	if err := ParseEnv(&cfg); err != nil {
		var zero T
		return zero, err
	}
	return cfg, nil
}
