package milvus

import (
	"errors"
	"time"
)

var (
	ErrInvalidConfig = errors.New("milvus: invalid configuration")
	ErrClientClosed  = errors.New("milvus: client is closed")
)

// Config holds Milvus connection settings.
type Config struct {
	Address     string        `mapstructure:"address" yaml:"address"` // host:port
	Username    string        `mapstructure:"username" yaml:"username"`
	Password    string        `mapstructure:"password" yaml:"password"`
	Database    string        `mapstructure:"database" yaml:"database"`
	DialTimeout time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Address == "" {
		return errors.New("milvus: address is required")
	}
	return nil
}
