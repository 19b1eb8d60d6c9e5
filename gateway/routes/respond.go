package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"jungle/core"
	"jungle/core/types"
	"jungle/gateway/middleware"
	"jungle/native/bank"
	"jungle/native/jungle"
	"jungle/native/lottery"
)

const maxBodyBytes = 1 << 20

var errNoCaller = errors.New("caller identity required")

func decodeRequest(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSONError(w, http.StatusBadRequest, err)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": message})
}

// writeNodeError maps an operation failure onto an HTTP status.
func writeNodeError(w http.ResponseWriter, err error) {
	writeJSONError(w, statusFor(err), err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrContractBreach):
		return http.StatusInternalServerError
	case errors.Is(err, jungle.ErrNotFound), errors.Is(err, lottery.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, jungle.ErrUnauthorized), errors.Is(err, lottery.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, jungle.ErrTooEarly),
		errors.Is(err, lottery.ErrTooSoonForNewRound),
		errors.Is(err, lottery.ErrRoundFinished),
		errors.Is(err, lottery.ErrRoundNotFinished):
		return http.StatusConflict
	case errors.Is(err, jungle.ErrInvalidProof),
		errors.Is(err, jungle.ErrInvalidMultiplier),
		errors.Is(err, lottery.ErrInvalidSchedule):
		return http.StatusBadRequest
	case errors.Is(err, bank.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	default:
		return http.StatusUnprocessableEntity
	}
}

func caller(w http.ResponseWriter, r *http.Request) (types.Identity, bool) {
	id, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, errNoCaller)
	}
	return id, ok
}

func identityParam(w http.ResponseWriter, r *http.Request, name string) (types.Identity, bool) {
	id, err := types.ParseIdentity(chi.URLParam(r, name))
	if err != nil {
		writeBadRequest(w, fmt.Errorf("%s: %w", name, err))
		return types.Identity{}, false
	}
	return id, true
}

func uintParam(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	v, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("%s: %w", name, err))
		return 0, false
	}
	return v, true
}

// amountRequest carries token amounts as decimal strings so 64-bit values
// survive JSON clients that parse numbers as doubles.
type amountRequest struct {
	Amount string `json:"amount"`
}

func (a amountRequest) value() (uint64, error) {
	return parseAmount(a.Amount)
}

func parseAmount(s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount: %w", err)
	}
	return v, nil
}

type amountResponse struct {
	Amount string `json:"amount"`
}

func amount(v uint64) amountResponse {
	return amountResponse{Amount: strconv.FormatUint(v, 10)}
}
