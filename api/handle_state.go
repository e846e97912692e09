package api

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	st := s.eng.GetCurrentState()
	JSON(w, http.StatusOK, map[string]interface{}{
		"stateRoot":         st.StateRoot.Hex(),
		"rollupBlockNumber": st.RollupBlockNumber,
		"totalValueLocked":  s.eng.TotalValueLocked().String(),
	})
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	addr := common.HexToAddress(chi.URLParam(r, "address"))
	JSON(w, http.StatusOK, map[string]interface{}{"balance": s.eng.GetBalance(addr).String()})
}

func (s *Server) handleGetBond(w http.ResponseWriter, r *http.Request) {
	operator := common.HexToAddress(chi.URLParam(r, "operator"))
	JSON(w, http.StatusOK, map[string]interface{}{"bond": s.eng.GetOperatorBond(operator).String()})
}
