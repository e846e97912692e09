package api

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
)

type requestWithdrawalRequest struct {
	User   string `json:"user"`
	Amount string `json:"amount"`
}

func (s *Server) handleRequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req requestWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	id, err := s.eng.RequestWithdrawal(common.HexToAddress(req.User), amount)
	if err != nil {
		ERROR(w, statusFor(err), err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"id": id.Hex()})
}

func (s *Server) handleGetWithdrawal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, ok := s.eng.GetWithdrawalRequest(common.HexToHash(id))
	if !ok {
		ERROR(w, http.StatusNotFound, errWithdrawalNotFound(id))
		return
	}
	JSON(w, http.StatusOK, req)
}

func (s *Server) handleProcessWithdrawal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Caller string `json:"caller"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	if err := s.eng.ProcessWithdrawal(common.HexToHash(id), common.HexToAddress(body.Caller)); err != nil {
		ERROR(w, statusFor(err), err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"processed": true})
}

func (s *Server) handleCanProcessWithdrawal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	JSON(w, http.StatusOK, map[string]interface{}{"canProcess": s.eng.CanProcessWithdrawal(common.HexToHash(id))})
}
