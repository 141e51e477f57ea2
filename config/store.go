package config

import "embed"

// Store holds the default config files, one per environment on top of base.yml.
//
//go:embed *.yml
var Store embed.FS
