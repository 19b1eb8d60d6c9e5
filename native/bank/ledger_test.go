package bank

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"jungle/core/events"
	"jungle/core/types"
)

type balanceKey struct {
	holder types.Identity
	mint   types.Identity
}

type mockBalances map[balanceKey]uint64

func (m mockBalances) BalanceGet(holder, mint types.Identity) (uint64, error) {
	return m[balanceKey{holder, mint}], nil
}

func (m mockBalances) BalancePut(holder, mint types.Identity, amount uint64) error {
	if amount == 0 {
		delete(m, balanceKey{holder, mint})
		return nil
	}
	m[balanceKey{holder, mint}] = amount
	return nil
}

var (
	alice = types.Identity{1}
	bob   = types.Identity{2}
	token = types.Identity{0xAA}
)

func TestTransferMovesBalance(t *testing.T) {
	state := mockBalances{}
	ledger := NewLedger(state)
	var sink events.Buffer
	ledger.SetEmitter(&sink)

	require.NoError(t, ledger.Mint(alice, token, 100))
	require.NoError(t, ledger.Transfer(alice, bob, token, 40))

	got, err := ledger.Balance(alice, token)
	require.NoError(t, err)
	require.EqualValues(t, 60, got)
	got, err = ledger.Balance(bob, token)
	require.NoError(t, err)
	require.EqualValues(t, 40, got)

	emitted := sink.Events()
	require.Len(t, emitted, 2)
	require.Equal(t, events.TypeMint, emitted[0].EventType())
	require.Equal(t, events.TypeTransfer, emitted[1].EventType())
}

func TestTransferRejectsInsufficientBalance(t *testing.T) {
	state := mockBalances{}
	ledger := NewLedger(state)
	require.NoError(t, ledger.Mint(alice, token, 5))

	err := ledger.Transfer(alice, bob, token, 6)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	got, _ := ledger.Balance(alice, token)
	require.EqualValues(t, 5, got)
}

func TestTransferZeroAndSelfAreNoops(t *testing.T) {
	state := mockBalances{}
	ledger := NewLedger(state)
	require.NoError(t, ledger.Transfer(alice, bob, token, 0))
	require.NoError(t, ledger.Transfer(alice, alice, token, 10))
	require.Empty(t, state)
}

func TestMintDetectsOverflow(t *testing.T) {
	state := mockBalances{}
	ledger := NewLedger(state)
	require.NoError(t, ledger.Mint(alice, token, math.MaxUint64))
	require.Error(t, ledger.Mint(alice, token, 1))

	require.NoError(t, ledger.Mint(bob, token, 1))
	require.Error(t, ledger.Transfer(bob, alice, token, 1))
}
