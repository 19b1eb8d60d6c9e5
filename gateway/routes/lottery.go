package routes

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"jungle/core/types"
	"jungle/native/lottery"
)

func (h *handlers) mountLottery(r chi.Router) {
	r.Post("/v1/lottery", h.initLottery)
	r.Route("/v1/lottery/{key}", func(r chi.Router) {
		r.Get("/", h.getLottery)
		r.Put("/", h.setLottery)
		r.Get("/pot", h.potBalance)
		r.Post("/fund", h.fundPot)
		r.Post("/rounds", h.newRound)
		r.Route("/rounds/{index}", func(r chi.Router) {
			r.Get("/", h.getRound)
			r.Post("/participate", h.participate)
			r.Put("/participation", h.updateParticipation)
			r.Get("/participation/{player}", h.getParticipation)
			r.Post("/claim", h.claimParticipation)
		})
	})
}

// spendingsJSON carries one decimal amount per faction.
type spendingsJSON [lottery.FactionCount]string

func (s spendingsJSON) spendings() (lottery.Spendings, error) {
	var out lottery.Spendings
	for i, raw := range s {
		if raw == "" {
			continue
		}
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return out, fmt.Errorf("spendings[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func newSpendingsJSON(s lottery.Spendings) spendingsJSON {
	var out spendingsJSON
	for i, v := range s {
		out[i] = strconv.FormatUint(v, 10)
	}
	return out
}

type lotteryRequest struct {
	Key      types.Identity `json:"key"`
	Owner    types.Identity `json:"owner"`
	Mint     types.Identity `json:"mint"`
	Treasury types.Identity `json:"treasury"`
	Period   uint64         `json:"period"`
	Start    int64          `json:"start"`
}

type participateRequest struct {
	Spendings spendingsJSON `json:"spendings"`
}

type lotteryView struct {
	Key           types.Identity `json:"key"`
	Owner         types.Identity `json:"owner"`
	Mint          types.Identity `json:"mint"`
	Escrow        types.Identity `json:"escrow"`
	Treasury      types.Identity `json:"treasury"`
	Period        uint64         `json:"period"`
	LastRound     uint64         `json:"lastRound"`
	LastTimestamp int64          `json:"lastTimestamp"`
	UnclaimedPot  string         `json:"unclaimedPot"`
}

func newLotteryView(cfg *lottery.Config) lotteryView {
	return lotteryView{
		Key:           cfg.Key,
		Owner:         cfg.Owner,
		Mint:          cfg.Mint,
		Escrow:        cfg.Escrow,
		Treasury:      cfg.Treasury,
		Period:        cfg.Period,
		LastRound:     cfg.LastRound,
		LastTimestamp: cfg.LastTimestamp,
		UnclaimedPot:  strconv.FormatUint(cfg.UnclaimedPot, 10),
	}
}

type roundView struct {
	Lottery   types.Identity      `json:"lottery"`
	Index     uint64              `json:"index"`
	Start     int64               `json:"start"`
	Spendings spendingsJSON       `json:"spendings"`
	Pot       string              `json:"pot"`
	Winner    uint8               `json:"winner"`
	Status    lottery.RoundStatus `json:"status"`
}

func newRoundView(round *lottery.Round) roundView {
	return roundView{
		Lottery:   round.Lottery,
		Index:     round.Index,
		Start:     round.Start,
		Spendings: newSpendingsJSON(round.Spendings),
		Pot:       strconv.FormatUint(round.Pot, 10),
		Winner:    round.Winner,
	}
}

type participationView struct {
	Lottery   types.Identity `json:"lottery"`
	Index     uint64         `json:"index"`
	Player    types.Identity `json:"player"`
	Spendings spendingsJSON  `json:"spendings"`
	Payout    string         `json:"payout,omitempty"`
}

func newParticipationView(p *lottery.Participation) participationView {
	return participationView{
		Lottery:   p.Lottery,
		Index:     p.Index,
		Player:    p.Player,
		Spendings: newSpendingsJSON(p.Spendings),
	}
}

func (h *handlers) initLottery(w http.ResponseWriter, r *http.Request) {
	owner, ok := caller(w, r)
	if !ok {
		return
	}
	var req lotteryRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	cfg, err := h.node.InitLottery(owner, req.Key, req.Mint, req.Treasury, req.Period, req.Start)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newLotteryView(cfg))
}

func (h *handlers) setLottery(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	key, ok := identityParam(w, r, "key")
	if !ok {
		return
	}
	var req lotteryRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	cfg, err := h.node.SetLottery(who, key, req.Owner, req.Mint, req.Treasury, req.Period, req.Start)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newLotteryView(cfg))
}

func (h *handlers) getLottery(w http.ResponseWriter, r *http.Request) {
	key, ok := identityParam(w, r, "key")
	if !ok {
		return
	}
	cfg, err := h.node.Lottery(key)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newLotteryView(cfg))
}

func (h *handlers) potBalance(w http.ResponseWriter, r *http.Request) {
	key, ok := identityParam(w, r, "key")
	if !ok {
		return
	}
	balance, err := h.node.PotBalance(key)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amount(balance))
}

func (h *handlers) fundPot(w http.ResponseWriter, r *http.Request) {
	funder, ok := caller(w, r)
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
	if err := h.node.FundPot(funder, key, value); err != nil {
		writeNodeError(w, err)
		return
	}
	h.potBalance(w, r)
}

func (h *handlers) newRound(w http.ResponseWriter, r *http.Request) {
	key, ok := identityParam(w, r, "key")
	if !ok {
		return
	}
	round, err := h.node.NewLotteryRound(key)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	view := newRoundView(round)
	view.Status = lottery.RoundStatusOpen
	writeJSON(w, http.StatusCreated, view)
}

func (h *handlers) getRound(w http.ResponseWriter, r *http.Request) {
	key, ok := identityParam(w, r, "key")
	if !ok {
		return
	}
	index, ok := uintParam(w, r, "index")
	if !ok {
		return
	}
	round, err := h.node.Round(key, index)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	status, err := h.node.RoundStatus(key, index)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	view := newRoundView(round)
	view.Status = status
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) participate(w http.ResponseWriter, r *http.Request) {
	h.contribute(w, r, http.StatusCreated, h.node.Participate)
}

func (h *handlers) updateParticipation(w http.ResponseWriter, r *http.Request) {
	h.contribute(w, r, http.StatusOK, h.node.UpdateParticipation)
}

func (h *handlers) contribute(w http.ResponseWriter, r *http.Request, status int,
	op func(player, key types.Identity, index uint64, s lottery.Spendings) (*lottery.Participation, error)) {
	player, ok := caller(w, r)
	if !ok {
		return
	}
	key, ok := identityParam(w, r, "key")
	if !ok {
		return
	}
	index, ok := uintParam(w, r, "index")
	if !ok {
		return
	}
	var req participateRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	spendings, err := req.Spendings.spendings()
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	p, err := op(player, key, index, spendings)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, status, newParticipationView(p))
}

func (h *handlers) getParticipation(w http.ResponseWriter, r *http.Request) {
	key, ok := identityParam(w, r, "key")
	if !ok {
		return
	}
	index, ok := uintParam(w, r, "index")
	if !ok {
		return
	}
	player, ok := identityParam(w, r, "player")
	if !ok {
		return
	}
	p, err := h.node.Participation(key, index, player)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	view := newParticipationView(p)
	if payout, err := h.node.PreviewPayout(key, index, player); err == nil {
		view.Payout = strconv.FormatUint(payout, 10)
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) claimParticipation(w http.ResponseWriter, r *http.Request) {
	player, ok := caller(w, r)
	if !ok {
		return
	}
	key, ok := identityParam(w, r, "key")
	if !ok {
		return
	}
	index, ok := uintParam(w, r, "index")
	if !ok {
		return
	}
	paid, err := h.node.ClaimParticipation(player, key, index)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amount(paid))
}
