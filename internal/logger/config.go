// internal/logger/config.go
package logger

// Config controls where and how much the application logs.
type Config struct {
	File       string
	Level      string
	MaxSize    int  // megabytes
	MaxAge     int  // days
	MaxBackups int  // rotated files kept
	Compress   bool // gzip rotated files

	// Console mirrors log lines to stdout. Leave it off while the
	// dashboard owns the terminal.
	Console bool

	// RecentSize is the number of entries kept in memory for the dashboard.
	RecentSize int
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		File:       "logs/liqwatch.log",
		Level:      "info",
		MaxSize:    100,
		MaxAge:     7,
		MaxBackups: 3,
		Compress:   true,
		RecentSize: DefaultRecentSize,
	}
}
