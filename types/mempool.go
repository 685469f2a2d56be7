package types

// GateVerdict is the application's decision on whether a
// transaction should be admitted to the mempool.
type GateVerdict struct {
	// 0 = accepted into mempool. Non-zero = rejection code.
	Code uint32 `cramberry:"1"`
	// Rejection reason.
	Info string `cramberry:"2"`
	// Sender address (hex) for same-sender sequencing.
	Sender string `cramberry:"3"`
	// Sequence carried by the transaction.
	Sequence uint64 `cramberry:"4"`
}

// Accepted returns true if the transaction was admitted.
func (v GateVerdict) Accepted() bool { return v.Code == 0 }
