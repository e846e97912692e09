package api

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
)

type depositRequest struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	if err := s.eng.Deposit(common.HexToAddress(req.Address), amount); err != nil {
		ERROR(w, statusFor(err), err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"balance": s.eng.GetBalance(common.HexToAddress(req.Address)).String()})
}
