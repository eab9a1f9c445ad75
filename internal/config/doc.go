// Package config loads radarloop's TOML configuration.
//
// Values are read from the path given on the command line, else
// ~/.config/radarloop/config.toml, else ./radarloop.toml. A missing file is
// not an error; defaults apply.
package config
