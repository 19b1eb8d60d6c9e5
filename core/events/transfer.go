package events

import (
	"strconv"

	"jungle/core/types"
)

const (
	// TypeTransfer is emitted for every balance movement performed by the ledger.
	TypeTransfer = "bank.transfer"
	// TypeMint is emitted when a holder is credited from outside the ledger.
	TypeMint = "bank.mint"
)

// Transfer captures a movement of amount units of mint between two holders.
type Transfer struct {
	Mint   types.Identity
	From   types.Identity
	To     types.Identity
	Amount uint64
}

// EventType satisfies the Event interface.
func (Transfer) EventType() string { return TypeTransfer }

// Event converts the structured payload into a broadcastable event.
func (e Transfer) Event() *types.Event {
	return types.NewEvent(TypeTransfer).
		With("mint", e.Mint.String()).
		With("from", e.From.String()).
		With("to", e.To.String()).
		With("amount", strconv.FormatUint(e.Amount, 10))
}

// Mint captures a credit issued to a holder.
type Mint struct {
	Mint   types.Identity
	To     types.Identity
	Amount uint64
}

// EventType satisfies the Event interface.
func (Mint) EventType() string { return TypeMint }

// Event converts the structured payload into a broadcastable event.
func (e Mint) Event() *types.Event {
	return types.NewEvent(TypeMint).
		With("mint", e.Mint.String()).
		With("to", e.To.String()).
		With("amount", strconv.FormatUint(e.Amount, 10))
}
