package config

import (
	"fmt"
	"strings"
)

// Environment selects which overlay file is merged on top of config.yaml.
type Environment string

const (
	EnvironmentLocal      Environment = "local"
	EnvironmentProduction Environment = "production"
)

// ParseEnvironment parses NEWSLETTER_ENVIRONMENT. Empty means local.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(EnvironmentLocal):
		return EnvironmentLocal, nil
	case string(EnvironmentProduction):
		return EnvironmentProduction, nil
	default:
		return "", fmt.Errorf("%q is not a supported environment, use either `local` or `production`", s)
	}
}
