package httpinterface

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

// errBadRequest marks malformed requests, as opposed to well formed ones
// rejected by a contract.
var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func httpStatus(err error) int {
	if errors.Is(err, errBadRequest) {
		return http.StatusBadRequest
	}
	switch domain.ClassOf(err) {
	case domain.ErrClassConstruction, domain.ErrClassValidation:
		return http.StatusBadRequest
	case domain.ErrClassAuthorization:
		return http.StatusForbidden
	case domain.ErrClassNotFound:
		return http.StatusNotFound
	case domain.ErrClassState:
		return http.StatusConflict
	case domain.ErrClassTransfer, domain.ErrClassReentrancy:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := httpStatus(err)
	code := domain.NameOf(err)
	if code == "" {
		code = http.StatusText(status)
	}
	if status == http.StatusInternalServerError {
		log.WithError(err).Warn("request failed")
	}
	writeJSON(w, status, errorResponse{err.Error(), code})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Debug("failed to write response")
	}
}
