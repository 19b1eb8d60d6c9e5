package lottery

import (
	"errors"
	"fmt"
)

var (
	// ErrTooSoonForNewRound is returned when a rollover is attempted before the current period elapsed.
	ErrTooSoonForNewRound = errors.New("lottery: too soon to start a new round")
	// ErrRoundFinished is returned when a player contributes to a round whose window closed.
	ErrRoundFinished = errors.New("lottery: round is finished")
	// ErrRoundNotFinished is returned when a claim targets a round without a drawn winner.
	ErrRoundNotFinished = errors.New("lottery: round is not finished")
	// ErrUnauthorized is returned when the caller does not own the lottery.
	ErrUnauthorized = errors.New("lottery: caller not authorized")
	// ErrInvalidSchedule is returned when start plus period does not fit in a
	// unix timestamp.
	ErrInvalidSchedule = errors.New("lottery: round schedule overflows")
	// ErrNotFound is wrapped by lookups of missing lottery records.
	ErrNotFound = errors.New("lottery: not found")

	errNilState              = errors.New("lottery engine: state not configured")
	errNilLedger             = errors.New("lottery engine: ledger not configured")
	errLotteryExists         = errors.New("lottery engine: lottery already initialized")
	errLotteryNotFound       = fmt.Errorf("lottery engine: lottery %w", ErrNotFound)
	errRoundNotFound         = fmt.Errorf("lottery engine: round %w", ErrNotFound)
	errParticipationNotFound = fmt.Errorf("lottery engine: participation %w", ErrNotFound)
	errInvalidPeriod         = errors.New("lottery engine: period must be positive")
	errSpendingOverflow      = errors.New("lottery engine: spending overflow")
	errPotOverflow           = errors.New("lottery engine: unclaimed pot overflow")
	errPotUnderflow          = errors.New("lottery engine: unclaimed pot underflow")
)
