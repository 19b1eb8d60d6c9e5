package config

import (
	"encoding/hex"
	"fmt"
	"net"
	"strings"

	"jungle/core/types"
)

// MinRarityMultiplier is the multiplier applied to the least rare animal (1x).
const MinRarityMultiplier = uint64(10_000)

// Validate checks the configuration for values the node cannot start with.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}
	if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		return fmt.Errorf("ListenAddress: %w", err)
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("DataDir must be set")
	}
	switch cfg.Database {
	case DatabaseLevelDB, DatabaseMemory:
	default:
		return fmt.Errorf("Database: unsupported backend %q", cfg.Database)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Log.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log: unknown level %q", cfg.Log.Level)
	}
	if cfg.Auth.Enabled {
		if _, err := cfg.Auth.Secret(); err != nil {
			return err
		}
	}
	if cfg.RateLimit.RequestsPerSecond < 0 || cfg.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit: values must not be negative")
	}
	if cfg.RateLimit.RequestsPerSecond > 0 && cfg.RateLimit.Burst == 0 {
		return fmt.Errorf("rate_limit: Burst must be positive when RequestsPerSecond is set")
	}
	if cfg.EventLog.StreamHistory < 0 {
		return fmt.Errorf("eventlog: StreamHistory must not be negative")
	}
	switch cfg.EventLog.Driver {
	case EventLogDisabled:
	case EventLogSQLite, EventLogPostgres:
		if strings.TrimSpace(cfg.EventLog.DSN) == "" {
			return fmt.Errorf("eventlog: DSN required for driver %s", cfg.EventLog.Driver)
		}
	default:
		return fmt.Errorf("eventlog: unsupported driver %q", cfg.EventLog.Driver)
	}
	if cfg.Telemetry.SampleRatio < 0 || cfg.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry: SampleRatio must be within [0, 1]")
	}
	if j := cfg.Bootstrap.Jungle; j != nil {
		if err := validateJungle(j); err != nil {
			return fmt.Errorf("bootstrap.jungle: %w", err)
		}
	}
	if l := cfg.Bootstrap.Lottery; l != nil {
		if err := validateLottery(l); err != nil {
			return fmt.Errorf("bootstrap.lottery: %w", err)
		}
	}
	return nil
}

func validateJungle(j *JungleBootstrap) error {
	for name, value := range map[string]string{"Owner": j.Owner, "Key": j.Key, "Mint": j.Mint} {
		if _, err := types.ParseIdentity(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if _, err := ParseRoot(j.Root); err != nil {
		return err
	}
	if j.MaximumRarity == 0 {
		return fmt.Errorf("MaximumRarity must be positive")
	}
	if j.MaximumRarityMultiplier < MinRarityMultiplier {
		return fmt.Errorf("MaximumRarityMultiplier must be at least %d", MinRarityMultiplier)
	}
	return nil
}

func validateLottery(l *LotteryBootstrap) error {
	for name, value := range map[string]string{"Owner": l.Owner, "Key": l.Key, "Mint": l.Mint, "Treasury": l.Treasury} {
		if _, err := types.ParseIdentity(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if l.Period == 0 {
		return fmt.Errorf("Period must be positive")
	}
	return nil
}

// ParseRoot decodes a 0x-prefixed or bare 32-byte hex merkle root.
func ParseRoot(value string) ([32]byte, error) {
	var root [32]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return root, fmt.Errorf("Root: %w", err)
	}
	if len(raw) != len(root) {
		return root, fmt.Errorf("Root must be 32 bytes (got %d)", len(raw))
	}
	copy(root[:], raw)
	return root, nil
}
