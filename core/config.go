package core

import (
	"fmt"
	"strings"
)

type Config struct {
	RecordType         string `koanf:"record_type" mapstructure:"record_type"`
	FieldKey           string `koanf:"field_key" mapstructure:"field_key"`
	DefinitionPageSize int    `koanf:"definition_page_size" mapstructure:"definition_page_size"`
	SingletonPageSize  int    `koanf:"singleton_page_size" mapstructure:"singleton_page_size"`
	MinDays            int    `koanf:"min_days" mapstructure:"min_days"`
}

func DefaultConfig() Config {
	return Config{
		RecordType:         RecordType,
		FieldKey:           FieldKey,
		DefinitionPageSize: DefinitionPageSize,
		SingletonPageSize:  SingletonPageSize,
		MinDays:            0,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.RecordType) == "" {
		return fmt.Errorf("core: record_type is required")
	}
	if strings.TrimSpace(c.FieldKey) == "" {
		return fmt.Errorf("core: field_key is required")
	}
	if c.DefinitionPageSize <= 0 {
		return fmt.Errorf("core: definition_page_size must be positive")
	}
	if c.SingletonPageSize <= 0 {
		return fmt.Errorf("core: singleton_page_size must be positive")
	}
	if c.MinDays < 0 {
		return fmt.Errorf("core: min_days must not be negative")
	}
	return nil
}
