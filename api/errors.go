package api

import (
	"errors"
	"fmt"

	"github.com/wlvchandler/rollup-settlement-core/settlement"
)

func errorsIsPrecondition(err error) bool {
	return errors.Is(err, settlement.ErrPrecondition)
}

func errBlockNotFound(blockNum uint64) error {
	return fmt.Errorf("rollup block %d not found", blockNum)
}

func errWithdrawalNotFound(id string) error {
	return fmt.Errorf("withdrawal request %s not found", id)
}
