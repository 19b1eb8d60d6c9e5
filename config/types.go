package config

import (
	"fmt"
	"os"
	"strings"
)

// Log controls verbosity and the optional rotating log file.
type Log struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
	Compress   bool   `toml:"Compress"`
}

// Auth configures bearer token verification on mutating routes. The token
// subject is the caller identity.
type Auth struct {
	Enabled       bool   `toml:"Enabled"`
	HMACSecret    string `toml:"HMACSecret"`
	HMACSecretEnv string `toml:"HMACSecretEnv"`
	Issuer        string `toml:"Issuer"`
	Audience      string `toml:"Audience"`
}

// Secret resolves the signing secret, preferring the inline value.
func (a Auth) Secret() (string, error) {
	if secret := strings.TrimSpace(a.HMACSecret); secret != "" {
		return secret, nil
	}
	if env := strings.TrimSpace(a.HMACSecretEnv); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
		return "", fmt.Errorf("auth: environment variable %s is empty", env)
	}
	return "", fmt.Errorf("auth: no secret configured")
}

// RateLimit bounds requests per client.
type RateLimit struct {
	RequestsPerSecond float64 `toml:"RequestsPerSecond"`
	Burst             int     `toml:"Burst"`
}

const (
	DatabaseLevelDB = "leveldb"
	DatabaseMemory  = "memory"
)

const (
	EventLogDisabled = ""
	EventLogSQLite   = "sqlite"
	EventLogPostgres = "postgres"
)

// EventLog selects where committed events are archived.
type EventLog struct {
	Driver string `toml:"Driver"`
	DSN    string `toml:"DSN"`
	// StreamHistory bounds the updates replayed to websocket clients that
	// reconnect with a cursor.
	StreamHistory int `toml:"StreamHistory"`
}

// Telemetry configures the OTLP exporters.
type Telemetry struct {
	Endpoint    string  `toml:"Endpoint"`
	Insecure    bool    `toml:"Insecure"`
	Headers     string  `toml:"Headers"`
	Traces      bool    `toml:"Traces"`
	Metrics     bool    `toml:"Metrics"`
	SampleRatio float64 `toml:"SampleRatio"`
}

// Bootstrap lists programs created at startup when they do not exist yet.
type Bootstrap struct {
	Jungle  *JungleBootstrap  `toml:"jungle,omitempty"`
	Lottery *LotteryBootstrap `toml:"lottery,omitempty"`
}

// JungleBootstrap describes a staking program. Identities accept bech32 or hex.
type JungleBootstrap struct {
	Owner                   string `toml:"Owner"`
	Key                     string `toml:"Key"`
	Mint                    string `toml:"Mint"`
	Root                    string `toml:"Root"`
	MaximumRarity           uint64 `toml:"MaximumRarity"`
	MaximumRarityMultiplier uint64 `toml:"MaximumRarityMultiplier"`
	BaseWeeklyEmissions     uint64 `toml:"BaseWeeklyEmissions"`
	Start                   int64  `toml:"Start"`
}

// LotteryBootstrap describes a lottery.
type LotteryBootstrap struct {
	Owner    string `toml:"Owner"`
	Key      string `toml:"Key"`
	Mint     string `toml:"Mint"`
	Treasury string `toml:"Treasury"`
	Period   uint64 `toml:"Period"`
	Start    int64  `toml:"Start"`
}
