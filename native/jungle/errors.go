package jungle

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMultiplier is returned when the maximum rarity multiplier is below 1x (10000 bps).
	ErrInvalidMultiplier = errors.New("jungle: invalid multiplier, must be at least 10000")
	// ErrTooEarly is returned when staking is attempted before the jungle start time.
	ErrTooEarly = errors.New("jungle: too early to stake")
	// ErrInvalidProof is returned when the allow-list proof does not authenticate the animal.
	ErrInvalidProof = errors.New("jungle: merkle proof is invalid")
	// ErrRewardOverflow is returned when an accrued reward does not fit in 64 bits.
	ErrRewardOverflow = errors.New("jungle: reward amount overflows")
	// ErrUnauthorized is returned when the caller does not own the record it operates on.
	ErrUnauthorized = errors.New("jungle: caller not authorized")
	// ErrNotFound is wrapped by lookups of missing jungles and animals.
	ErrNotFound = errors.New("jungle: not found")

	errNilState            = errors.New("jungle engine: state not configured")
	errNilLedger           = errors.New("jungle engine: ledger not configured")
	errJungleExists        = errors.New("jungle engine: jungle already initialized")
	errJungleNotFound      = fmt.Errorf("jungle engine: jungle %w", ErrNotFound)
	errAnimalStaked        = errors.New("jungle engine: animal already staked")
	errAnimalNotFound      = fmt.Errorf("jungle engine: staked animal %w", ErrNotFound)
	errInvalidRarity       = errors.New("jungle engine: maximum rarity must be positive")
	errInvalidFaction      = errors.New("jungle engine: faction out of range")
	errStakedCountUnderrun = errors.New("jungle engine: staked count underrun")
)
