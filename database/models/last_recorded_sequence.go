package models

// LastRecordedSequence is the recorder's checkpoint: the highest
// settlement event sequence number durably persisted. It is used to
// avoid replaying events already written when the recorder restarts.
type LastRecordedSequence struct {
	Source   string `json:"source" bson:"source"`
	Sequence uint64 `json:"sequence" bson:"sequence"`
}
