package api

import "time"

// Config holds HTTP server settings for the fit API
type Config struct {
	Addr         string        `json:"addr"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	// MaxBodyBytes bounds request bodies
	MaxBodyBytes int64 `json:"max_body_bytes"`
	// Digits is the number of significant digits in text reports
	Digits int `json:"digits"`
}

// DefaultConfig returns sensible defaults for the API server
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		MaxBodyBytes: 8 << 20,
		Digits:       7,
	}
}
