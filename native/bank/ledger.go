package bank

import (
	"errors"
	"math/bits"

	"jungle/core/events"
	"jungle/core/types"
)

var (
	// ErrInsufficientBalance is returned when the source holder cannot cover a transfer.
	ErrInsufficientBalance = errors.New("bank: insufficient balance")

	errNilState        = errors.New("bank: state not configured")
	errBalanceOverflow = errors.New("bank: balance overflow")
)

// NativeMint identifies the native value of the host ledger. Lottery pots are
// denominated in it.
var NativeMint = types.Identity{}

type balanceState interface {
	BalanceGet(holder, mint types.Identity) (uint64, error)
	BalancePut(holder, mint types.Identity, amount uint64) error
}

// Ledger moves fixed-width balances between holders. Atomicity across several
// transfers is provided by the caller's state overlay, not by the ledger.
type Ledger struct {
	state   balanceState
	emitter events.Emitter
}

// NewLedger constructs a ledger over the supplied balance state.
func NewLedger(state balanceState) *Ledger {
	return &Ledger{state: state, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter used by the ledger.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// Balance returns the amount of mint held by holder.
func (l *Ledger) Balance(holder, mint types.Identity) (uint64, error) {
	if l == nil || l.state == nil {
		return 0, errNilState
	}
	return l.state.BalanceGet(holder, mint)
}

// Transfer moves amount units of mint from one holder to another. Zero
// amounts and self transfers succeed without touching state.
func (l *Ledger) Transfer(from, to, mint types.Identity, amount uint64) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == 0 || from == to {
		return nil
	}
	fromBalance, err := l.state.BalanceGet(from, mint)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return ErrInsufficientBalance
	}
	toBalance, err := l.state.BalanceGet(to, mint)
	if err != nil {
		return err
	}
	credited, carry := bits.Add64(toBalance, amount, 0)
	if carry != 0 {
		return errBalanceOverflow
	}
	if err := l.state.BalancePut(from, mint, fromBalance-amount); err != nil {
		return err
	}
	if err := l.state.BalancePut(to, mint, credited); err != nil {
		return err
	}
	l.emitter.Emit(events.Transfer{Mint: mint, From: from, To: to, Amount: amount})
	return nil
}

// Mint credits holder with amount units of mint.
func (l *Ledger) Mint(to, mint types.Identity, amount uint64) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == 0 {
		return nil
	}
	balance, err := l.state.BalanceGet(to, mint)
	if err != nil {
		return err
	}
	credited, carry := bits.Add64(balance, amount, 0)
	if carry != 0 {
		return errBalanceOverflow
	}
	if err := l.state.BalancePut(to, mint, credited); err != nil {
		return err
	}
	l.emitter.Emit(events.Mint{Mint: mint, To: to, Amount: amount})
	return nil
}
