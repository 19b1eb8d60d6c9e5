package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"jungle/core/types"
)

func (h *handlers) mountBank(r chi.Router) {
	r.Get("/v1/bank/balance/{mint}/{holder}", h.balance)
	r.Post("/v1/bank/transfer", h.transfer)
}

type transferRequest struct {
	To     types.Identity `json:"to"`
	Mint   types.Identity `json:"mint"`
	Amount string         `json:"amount"`
}

func (h *handlers) balance(w http.ResponseWriter, r *http.Request) {
	mint, ok := identityParam(w, r, "mint")
	if !ok {
		return
	}
	holder, ok := identityParam(w, r, "holder")
	if !ok {
		return
	}
	value, err := h.node.Balance(holder, mint)
	if err != nil {
		writeNodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amount(value))
}

func (h *handlers) transfer(w http.ResponseWriter, r *http.Request) {
	from, ok := caller(w, r)
	if !ok {
		return
	}
	var req transferRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	value, err := parseAmount(req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := h.node.Transfer(from, req.To, req.Mint, value); err != nil {
		writeNodeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) mint(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	var req transferRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	value, err := parseAmount(req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := h.node.Mint(req.To, req.Mint, value); err != nil {
		writeNodeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
