package state

import (
	"encoding/hex"
	"strconv"

	"jungle/core/types"
)

const (
	jungleConfigPrefix         = "jungle/config/"
	jungleAnimalPrefix         = "jungle/animal/"
	lotteryConfigPrefix        = "lottery/config/"
	lotteryRoundPrefix         = "lottery/round/"
	lotteryParticipationPrefix = "lottery/participation/"
	balancePrefix              = "bank/balance/"
)

// JungleConfigKey returns the storage key of a jungle configuration.
func JungleConfigKey(key types.Identity) []byte {
	return []byte(jungleConfigPrefix + hex.EncodeToString(key[:]))
}

// JungleAnimalKey returns the storage key of the staking record of an asset.
func JungleAnimalKey(mint types.Identity) []byte {
	return []byte(jungleAnimalPrefix + hex.EncodeToString(mint[:]))
}

// LotteryConfigKey returns the storage key of a lottery configuration.
func LotteryConfigKey(key types.Identity) []byte {
	return []byte(lotteryConfigPrefix + hex.EncodeToString(key[:]))
}

// LotteryRoundKey returns the storage key of a lottery round.
func LotteryRoundKey(key types.Identity, index uint64) []byte {
	return []byte(lotteryRoundPrefix + hex.EncodeToString(key[:]) + "/" + strconv.FormatUint(index, 10))
}

// LotteryParticipationKey returns the storage key of a player's participation in a round.
func LotteryParticipationKey(key types.Identity, index uint64, player types.Identity) []byte {
	return []byte(lotteryParticipationPrefix + hex.EncodeToString(key[:]) + "/" +
		strconv.FormatUint(index, 10) + "/" + hex.EncodeToString(player[:]))
}

// BalanceKey returns the storage key of a holder's balance of mint.
func BalanceKey(holder, mint types.Identity) []byte {
	return []byte(balancePrefix + hex.EncodeToString(mint[:]) + "/" + hex.EncodeToString(holder[:]))
}
