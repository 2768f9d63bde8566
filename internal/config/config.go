// Package config loads the static engine configuration: monitored pools,
// watched accounts, and similarity scoring parameters.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/similarity"
)

// Config is the JSON configuration file format.
type Config struct {
	Chain           string            `json:"chain,omitempty"`
	RetentionDays   int               `json:"retention_days,omitempty"`
	Pools           []PoolConfig      `json:"pools"`
	WatchedAccounts []AccountConfig   `json:"watched_accounts"`
	Similarity      *SimilarityConfig `json:"similarity,omitempty"`
}

// PoolConfig describes one monitored pool.
type PoolConfig struct {
	Pool           string `json:"pool"`
	Label          string `json:"label,omitempty"`
	FeeTier        int    `json:"fee_tier,omitempty"`
	BaseIsToken0   bool   `json:"base_is_token0"`
	Token0Decimals int    `json:"token0_decimals"`
	Token1Decimals int    `json:"token1_decimals"`
}

// AccountConfig describes one watched account.
type AccountConfig struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// SimilarityConfig overrides the detector defaults.
type SimilarityConfig struct {
	DirectionWeight float64 `json:"direction_weight"`
	TimeWeight      float64 `json:"time_weight"`
	SizeWeight      float64 `json:"size_weight"`
	Threshold       float64 `json:"threshold"`
	WindowSeconds   int64   `json:"window_seconds,omitempty"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}

	return &cfg, nil
}

// Validate checks structural invariants.
func (c *Config) Validate() error {
	if len(c.Pools) == 0 {
		return fmt.Errorf("no pools configured")
	}
	if len(c.WatchedAccounts) == 0 {
		return fmt.Errorf("no watched accounts configured")
	}

	seen := make(map[string]struct{}, len(c.Pools))
	for i, p := range c.Pools {
		if p.Pool == "" {
			return fmt.Errorf("pool %d: missing address", i)
		}
		if p.Token0Decimals < 0 || p.Token1Decimals < 0 {
			return fmt.Errorf("pool %s: negative decimals", p.Pool)
		}
		key := strings.ToLower(p.Pool)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("pool %s: duplicate entry", p.Pool)
		}
		seen[key] = struct{}{}
	}

	for i, a := range c.WatchedAccounts {
		if a.Address == "" {
			return fmt.Errorf("watched account %d: missing address", i)
		}
	}

	if c.Similarity != nil {
		if err := c.SimilaritySettings().Validate(); err != nil {
			return err
		}
	}

	return nil
}

// PoolMetadata converts the pool entries to domain form.
func (c *Config) PoolMetadata() []domain.PoolMetadata {
	pools := make([]domain.PoolMetadata, 0, len(c.Pools))
	for _, p := range c.Pools {
		pools = append(pools, domain.PoolMetadata{
			Pool:           p.Pool,
			Label:          p.Label,
			FeeTier:        p.FeeTier,
			BaseIsToken0:   p.BaseIsToken0,
			Token0Decimals: p.Token0Decimals,
			Token1Decimals: p.Token1Decimals,
		})
	}
	return pools
}

// Accounts converts the watched-account entries to domain form.
func (c *Config) Accounts() []domain.WatchedAccount {
	accounts := make([]domain.WatchedAccount, 0, len(c.WatchedAccounts))
	for _, a := range c.WatchedAccounts {
		accounts = append(accounts, domain.WatchedAccount{
			Address: a.Address,
			Name:    a.Name,
		})
	}
	return accounts
}

// PoolAddresses returns the configured pool addresses.
func (c *Config) PoolAddresses() []string {
	addrs := make([]string, 0, len(c.Pools))
	for _, p := range c.Pools {
		addrs = append(addrs, p.Pool)
	}
	return addrs
}

// SimilaritySettings returns the detector config, falling back to
// defaults when the file omits the similarity block.
func (c *Config) SimilaritySettings() similarity.Config {
	if c.Similarity == nil {
		return similarity.DefaultConfig()
	}
	return similarity.Config{
		DirectionWeight: c.Similarity.DirectionWeight,
		TimeWeight:      c.Similarity.TimeWeight,
		SizeWeight:      c.Similarity.SizeWeight,
		Threshold:       c.Similarity.Threshold,
	}
}
