package models

// RollupBlock is the persisted projection of a settlement engine
// RollupBlock, refreshed by the recorder on every event that touches it.
// Amounts and hashes are stored as hex/decimal strings since Mongo has
// no native 256-bit integer type.
type RollupBlock struct {
	Number          uint64 `json:"number" bson:"number"`
	StateRoot       string `json:"state_root" bson:"state_root"`
	TxRoot          string `json:"tx_root" bson:"tx_root"`
	PreStateRoot    string `json:"pre_state_root" bson:"pre_state_root"`
	HostBlockNumber uint64 `json:"host_block_number" bson:"host_block_number"`
	Operator        string `json:"operator" bson:"operator"`
	Challenged      bool   `json:"challenged" bson:"challenged"`
	Finalized       bool   `json:"finalized" bson:"finalized"`

	// Status is the materialized PENDING/CHALLENGED/FINALIZED projection,
	// refreshed alongside Challenged/Finalized the same way the teacher
	// keeps a withdrawal's Status field in sync with its proven/finalized
	// sub-documents.
	Status string `json:"status" bson:"status"`
}
