package models

// Withdrawal is the persisted projection of a settlement engine
// WithdrawalRequest.
type Withdrawal struct {
	ID                string `json:"id" bson:"id"`
	User              string `json:"user" bson:"user"`
	Amount            string `json:"amount" bson:"amount"`
	RollupBlockNumber uint64 `json:"rollup_block_number" bson:"rollup_block_number"`
	Processed         bool   `json:"processed" bson:"processed"`
	Status            string `json:"status" bson:"status"`
}
