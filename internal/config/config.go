// Package config loads and validates the pollwatch configuration.
package config

import "time"

type Config struct {
	Watch   WatchConfig   `mapstructure:"watch" yaml:"watch"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

type WatchConfig struct {
	Mode         string        `mapstructure:"mode" yaml:"mode"`         // "poll", "fsnotify", "auto"
	BasePath     string        `mapstructure:"basePath" yaml:"basePath"` // explicit files resolve against it
	Extensions   []string      `mapstructure:"extensions" yaml:"extensions"`
	Dirs         []string      `mapstructure:"dirs" yaml:"dirs"`
	Files        []string      `mapstructure:"files" yaml:"files"`
	ScanInterval int           `mapstructure:"scanInterval" yaml:"scanInterval"` // seconds
	Hash         string        `mapstructure:"hash" yaml:"hash"`                 // "md5", "xxh3"
	Debounce     time.Duration `mapstructure:"debounce" yaml:"debounce"`         // fsnotify mode only
}

// Interval is ScanInterval as a duration.
func (w WatchConfig) Interval() time.Duration {
	return time.Duration(w.ScanInterval) * time.Second
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // "info", "debug", etc.
	Format string `mapstructure:"format" yaml:"format"` // "json", "console"
}

const (
	ModePoll     = "poll"
	ModeFsnotify = "fsnotify"
	ModeAuto     = "auto"
)
