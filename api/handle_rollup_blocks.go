package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/wlvchandler/rollup-settlement-core/fraud"
	"github.com/wlvchandler/rollup-settlement-core/types"
)

type submitRollupBlockRequest struct {
	Operator  string              `json:"operator"`
	StateRoot string              `json:"stateRoot"`
	TxRoot    string              `json:"txRoot"`
	Txs       []types.Transaction `json:"txs"`
	BondValue string              `json:"bondValue"`
}

func (s *Server) handleSubmitRollupBlock(w http.ResponseWriter, r *http.Request) {
	var req submitRollupBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	bond, err := parseAmount(req.BondValue)
	if err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	blockNum, err := s.eng.SubmitRollupBlock(
		common.HexToAddress(req.Operator),
		common.HexToHash(req.StateRoot),
		common.HexToHash(req.TxRoot),
		req.Txs,
		bond,
	)
	if err != nil {
		ERROR(w, statusFor(err), err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"blockNumber": blockNum})
}

func blockNumFromPath(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "blockNum"), 10, 64)
}

func (s *Server) handleGetRollupBlock(w http.ResponseWriter, r *http.Request) {
	blockNum, err := blockNumFromPath(r)
	if err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	block, ok := s.eng.GetRollupBlock(blockNum)
	if !ok {
		ERROR(w, http.StatusNotFound, errBlockNotFound(blockNum))
		return
	}

	JSON(w, http.StatusOK, block)
}

func (s *Server) handleChallengeBlock(w http.ResponseWriter, r *http.Request) {
	blockNum, err := blockNumFromPath(r)
	if err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	var body struct {
		Challenger string      `json:"challenger"`
		Proof      fraud.Proof `json:"proof"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	if err := s.eng.ChallengeBlock(blockNum, common.HexToAddress(body.Challenger), body.Proof); err != nil {
		ERROR(w, statusFor(err), err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"challenged": true})
}

func (s *Server) handleFinalizeBlock(w http.ResponseWriter, r *http.Request) {
	blockNum, err := blockNumFromPath(r)
	if err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	if err := s.eng.FinalizeBlock(blockNum); err != nil {
		ERROR(w, statusFor(err), err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"finalized": true})
}

func (s *Server) handleCanFinalize(w http.ResponseWriter, r *http.Request) {
	blockNum, err := blockNumFromPath(r)
	if err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"canFinalize": s.eng.CanFinalize(blockNum)})
}

func (s *Server) handleCanChallenge(w http.ResponseWriter, r *http.Request) {
	blockNum, err := blockNumFromPath(r)
	if err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"canChallenge": s.eng.CanChallenge(blockNum)})
}
