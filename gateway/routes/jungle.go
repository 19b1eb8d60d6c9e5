package routes

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"

	"jungle/core/types"
	"jungle/native/jungle"
)

func (h *handlers) mountJungle(r chi.Router) {
	r.Post("/v1/jungle", h.initJungle)
	r.Route("/v1/jungle/{key}", func(r chi.Router) {
		r.Get("/", h.getJungle)
		r.Put("/", h.setJungle)
		r.Get("/pool", h.rewardPool)
		r.Post("/fund", h.fundRewards)
		r.Post("/withdraw", h.withdrawRewards)
		r.Post("/stake", h.stakeAnimal)
	})
	r.Route("/v1/animals/{asset}", func(r chi.Router) {
		r.Get("/", h.getAnimal)
		r.Get("/pending", h.pendingReward)
		r.Post("/claim", h.claimStaking)
		r.Post("/unstake", h.unstakeAnimal)
	})
}

type paramsRequest struct {
	MaximumRarity           uint64        `json:"maximumRarity"`
	MaximumRarityMultiplier uint64        `json:"maximumRarityMultiplier"`
	BaseWeeklyEmissions     string        `json:"baseWeeklyEmissions"`
	Start                   int64         `json:"start"`
	Root                    hexutil.Bytes `json:"root"`
}

func (p paramsRequest) params() (jungle.Params, error) {
	emissions, err := parseAmount(p.BaseWeeklyEmissions)
	if err != nil {
		return jungle.Params{}, fmt.Errorf("baseWeeklyEmissions: %w", err)
	}
	if len(p.Root) != 32 {
		return jungle.Params{}, fmt.Errorf("root must be 32 bytes (got %d)", len(p.Root))
	}
	out := jungle.Params{
		MaximumRarity:           p.MaximumRarity,
		MaximumRarityMultiplier: p.MaximumRarityMultiplier,
		BaseWeeklyEmissions:     emissions,
		Start:                   p.Start,
	}
	copy(out.Root[:], p.Root)
	return out, nil
}

type initJungleRequest struct {
	Key    types.Identity `json:"key"`
	Mint   types.Identity `json:"mint"`
	Params paramsRequest  `json:"params"`
}

type setJungleRequest struct {
	Owner  types.Identity `json:"owner"`
	Params paramsRequest  `json:"params"`
}

type stakeRequest struct {
	Asset   types.Identity  `json:"asset"`
	Proof   []hexutil.Bytes `json:"proof"`
	Rarity  uint64          `json:"rarity"`
	Faction uint64          `json:"faction"`
}

type jungleView struct {
	Key                     types.Identity `json:"key"`
	Owner                   types.Identity `json:"owner"`
	Escrow                  types.Identity `json:"escrow"`
	Mint                    types.Identity `json:"mint"`
	RewardsAccount          types.Identity `json:"rewardsAccount"`
	AnimalsStaked           uint64         `json:"animalsStaked"`
	MaximumRarity           uint64         `json:"maximumRarity"`
	MaximumRarityMultiplier uint64         `json:"maximumRarityMultiplier"`
	BaseWeeklyEmissions     string         `json:"baseWeeklyEmissions"`
	Start                   int64          `json:"start"`
	Root                    hexutil.Bytes  `json:"root"`
}

func newJungleView(cfg *jungle.Config) jungleView {
	return jungleView{
		Key:                     cfg.Key,
		Owner:                   cfg.Owner,
		Escrow:                  cfg.Escrow,
		Mint:                    cfg.Mint,
		RewardsAccount:          cfg.RewardsAccount,
		AnimalsStaked:           cfg.AnimalsStaked,
		MaximumRarity:           cfg.MaximumRarity,
		MaximumRarityMultiplier: cfg.MaximumRarityMultiplier,
		BaseWeeklyEmissions:     strconv.FormatUint(cfg.BaseWeeklyEmissions, 10),
		Start:                   cfg.Start,
		Root:                    cfg.Root[:],
	}
}

type animalView struct {
	Jungle      types.Identity `json:"jungle"`
	Mint        types.Identity `json:"mint"`
	Staker      types.Identity `json:"staker"`
	Rarity      uint64         `json:"rarity"`
	Faction     uint8          `json:"faction"`
	FactionName string         `json:"factionName"`
	LastClaim   int64          `json:"lastClaim"`
}

func newAnimalView(a *jungle.Animal) animalView {
	return animalView{
		Jungle:      a.Jungle,
		Mint:        a.Mint,
		Staker:      a.Staker,
		Rarity:      a.Rarity,
		Faction:     uint8(a.Faction),
		FactionName: a.Faction.String(),
		LastClaim:   a.LastClaim,
	}
}

func (h *handlers) initJungle(w http.ResponseWriter, r *http.Request) {
	owner, ok := caller(w, r)
	if !ok {
		return
	}
	var req initJungleRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	params, err := req.Params.params()
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	cfg, err := h.node.InitJungle(owner, req.Key, req.Mint, params)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newJungleView(cfg))
}

func (h *handlers) setJungle(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	key, ok := identityParam(w, r, "key")
	if !ok {
		return
	}
	var req setJungleRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	params, err := req.Params.params()
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	cfg, err := h.node.SetJungle(who, key, req.Owner, params)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newJungleView(cfg))
}

func (h *handlers) getJungle(w http.ResponseWriter, r *http.Request) {
	key, ok := identityParam(w, r, "key")
	if !ok {
		return
	}
	cfg, err := h.node.Jungle(key)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newJungleView(cfg))
}

func (h *handlers) rewardPool(w http.ResponseWriter, r *http.Request) {
	key, ok := identityParam(w, r, "key")
	if !ok {
		return
	}
	balance, err := h.node.RewardPoolBalance(key)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amount(balance))
}

func (h *handlers) fundRewards(w http.ResponseWriter, r *http.Request) {
	h.moveRewards(w, r, h.node.FundRewards)
}

func (h *handlers) withdrawRewards(w http.ResponseWriter, r *http.Request) {
	h.moveRewards(w, r, h.node.WithdrawRewards)
}

func (h *handlers) moveRewards(w http.ResponseWriter, r *http.Request, op func(who, key types.Identity, amount uint64) error) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	key, ok := identityParam(w, r, "key")
	if !ok {
		return
	}
	var req amountRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	value, err := req.value()
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := op(who, key, value); err != nil {
		writeNodeError(w, err)
		return
	}
	h.rewardPool(w, r)
}

func (h *handlers) stakeAnimal(w http.ResponseWriter, r *http.Request) {
	staker, ok := caller(w, r)
	if !ok {
		return
	}
	key, ok := identityParam(w, r, "key")
	if !ok {
		return
	}
	var req stakeRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	proof := make([][32]byte, len(req.Proof))
	for i, node := range req.Proof {
		if len(node) != 32 {
			writeBadRequest(w, fmt.Errorf("proof[%d] must be 32 bytes (got %d)", i, len(node)))
			return
		}
		copy(proof[i][:], node)
	}
	animal, err := h.node.StakeAnimal(staker, key, req.Asset, proof, req.Rarity, req.Faction)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAnimalView(animal))
}

func (h *handlers) getAnimal(w http.ResponseWriter, r *http.Request) {
	asset, ok := identityParam(w, r, "asset")
	if !ok {
		return
	}
	animal, err := h.node.Animal(asset)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAnimalView(animal))
}

func (h *handlers) pendingReward(w http.ResponseWriter, r *http.Request) {
	asset, ok := identityParam(w, r, "asset")
	if !ok {
		return
	}
	pending, err := h.node.PendingReward(asset)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amount(pending))
}

func (h *handlers) claimStaking(w http.ResponseWriter, r *http.Request) {
	staker, ok := caller(w, r)
	if !ok {
		return
	}
	asset, ok := identityParam(w, r, "asset")
	if !ok {
		return
	}
	paid, err := h.node.ClaimStaking(staker, asset)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amount(paid))
}

func (h *handlers) unstakeAnimal(w http.ResponseWriter, r *http.Request) {
	staker, ok := caller(w, r)
	if !ok {
		return
	}
	asset, ok := identityParam(w, r, "asset")
	if !ok {
		return
	}
	if err := h.node.UnstakeAnimal(staker, asset); err != nil {
		writeNodeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
