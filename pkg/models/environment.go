package models

import (
	"fmt"
	"strings"
)

// Environment is a deployment target accepted by the deployment gate.
type Environment string

const (
	// EnvTest is any non-production target. Approved by the tester persona.
	EnvTest Environment = "test"
	// EnvProduction is approved by the guardian persona.
	EnvProduction Environment = "production"
)

// Environments lists the accepted values in display order.
var Environments = []Environment{EnvTest, EnvProduction}

// Valid returns true if the environment is a known value.
func (e Environment) Valid() bool {
	switch e {
	case EnvTest, EnvProduction:
		return true
	default:
		return false
	}
}

// IsProduction reports whether e names production, ignoring case.
func (e Environment) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(string(e)), string(EnvProduction))
}

// ParseEnvironment normalises s and rejects unknown values.
func ParseEnvironment(s string) (Environment, error) {
	env := Environment(strings.ToLower(strings.TrimSpace(s)))
	if !env.Valid() {
		return "", fmt.Errorf("invalid environment %q: must be one of test, production", s)
	}
	return env, nil
}
