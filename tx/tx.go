// Package tx defines the transaction wire model: a signed body
// carrying an ordered list of operations, encoded with cramberry.
//
// The signed bytes are the cramberry encoding of Body, whose field
// order is fixed by its struct tags. They travel verbatim inside the
// encoded transaction.
package tx

import (
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/stakeledger/crypto"
	"github.com/blockberries/stakeledger/types"
)

// OpType tags the operation an envelope carries. A zero-valued
// operation may encode to nothing at all, so the tag alone identifies
// it on the wire.
type OpType uint8

const (
	TypeTransfer OpType = iota + 1
	TypeDefineAsset
	TypeIssueAsset
	TypeCreateValidator
	TypeBond
	TypeUnbond
	TypeClaimReward
	TypeUpdateValidator
)

// Envelope carries exactly one operation on the wire. A nil pointer
// for the tagged type stands for that operation's zero value.
type Envelope struct {
	Type            OpType           `cramberry:"1"`
	Transfer        *Transfer        `cramberry:"2"`
	DefineAsset     *DefineAsset     `cramberry:"3"`
	IssueAsset      *IssueAsset      `cramberry:"4"`
	CreateValidator *CreateValidator `cramberry:"5"`
	Bond            *Bond            `cramberry:"6"`
	Unbond          *Unbond          `cramberry:"7"`
	ClaimReward     *ClaimReward     `cramberry:"8"`
	UpdateValidator *UpdateValidator `cramberry:"9"`
}

// Wrap puts op into an envelope.
func Wrap(op Op) Envelope {
	var e Envelope
	switch op := op.(type) {
	case Transfer:
		e.Type, e.Transfer = TypeTransfer, &op
	case DefineAsset:
		e.Type, e.DefineAsset = TypeDefineAsset, &op
	case IssueAsset:
		e.Type, e.IssueAsset = TypeIssueAsset, &op
	case CreateValidator:
		e.Type, e.CreateValidator = TypeCreateValidator, &op
	case Bond:
		e.Type, e.Bond = TypeBond, &op
	case Unbond:
		e.Type, e.Unbond = TypeUnbond, &op
	case ClaimReward:
		e.Type, e.ClaimReward = TypeClaimReward, &op
	case UpdateValidator:
		e.Type, e.UpdateValidator = TypeUpdateValidator, &op
	default:
		panic(fmt.Sprintf("tx: unknown operation %T", op))
	}
	return e
}

// Op unwraps the envelope.
func (e Envelope) Op() (Op, error) {
	n := 0
	for _, set := range []bool{
		e.Transfer != nil, e.DefineAsset != nil, e.IssueAsset != nil, e.CreateValidator != nil,
		e.Bond != nil, e.Unbond != nil, e.ClaimReward != nil, e.UpdateValidator != nil,
	} {
		if set {
			n++
		}
	}
	if n > 1 {
		return nil, malformed("envelope carries %d operations", n)
	}
	switch e.Type {
	case TypeTransfer:
		return unwrap(e.Transfer, n)
	case TypeDefineAsset:
		return unwrap(e.DefineAsset, n)
	case TypeIssueAsset:
		return unwrap(e.IssueAsset, n)
	case TypeCreateValidator:
		return unwrap(e.CreateValidator, n)
	case TypeBond:
		return unwrap(e.Bond, n)
	case TypeUnbond:
		return unwrap(e.Unbond, n)
	case TypeClaimReward:
		return unwrap(e.ClaimReward, n)
	case TypeUpdateValidator:
		return unwrap(e.UpdateValidator, n)
	default:
		return nil, malformed("unknown operation type %d", e.Type)
	}
}

// unwrap returns *p, or the zero operation when p is nil and no other
// operation is present.
func unwrap[T Op](p *T, n int) (Op, error) {
	if p != nil {
		return *p, nil
	}
	if n != 0 {
		return nil, malformed("envelope type does not match its operation")
	}
	var zero T
	return zero, nil
}

// Body is the signed part of a transaction.
type Body struct {
	ChainID string `cramberry:"1"`
	// Sender is the compressed secp256k1 public key of the signer.
	Sender   []byte     `cramberry:"2"`
	Sequence uint64     `cramberry:"3"`
	Fee      uint64     `cramberry:"4"`
	Ops      []Envelope `cramberry:"5"`
}

// SignBytes returns the canonical bytes covered by the signature.
func (b *Body) SignBytes() ([]byte, error) {
	data, err := cramberry.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return data, nil
}

// SenderAddress derives the account address of the signer.
func (b *Body) SenderAddress() crypto.Address { return crypto.AddressFromPubKey(b.Sender) }

// Operations unwraps every envelope in declared order.
func (b *Body) Operations() ([]Op, error) {
	ops := make([]Op, 0, len(b.Ops))
	for i, e := range b.Ops {
		op, err := e.Op()
		if err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// Tx is a signed transaction.
type Tx struct {
	Body      Body
	Signature []byte

	// signed holds the body bytes as received. Nil for a transaction
	// built locally.
	signed []byte
}

// wireTx is the encoded form. The body travels as the exact bytes the
// signature covers, so verification never depends on re-encoding a
// decoded body.
type wireTx struct {
	Body      []byte `cramberry:"1"`
	Signature []byte `cramberry:"2"`
}

// Sign signs body with key. The body's Sender is set to the key's
// public key.
func Sign(body Body, key *crypto.PrivateKey) (*Tx, error) {
	body.Sender = key.PubKey()
	msg, err := body.SignBytes()
	if err != nil {
		return nil, err
	}
	return &Tx{Body: body, Signature: key.Sign(msg)}, nil
}

func (t *Tx) bodyBytes() ([]byte, error) {
	if t.signed != nil {
		return t.signed, nil
	}
	return t.Body.SignBytes()
}

// Verify checks the signature against the sender key. A decoded
// transaction is verified over the body bytes it arrived with.
func (t *Tx) Verify() error {
	msg, err := t.bodyBytes()
	if err != nil {
		return err
	}
	return crypto.Verify(t.Body.Sender, msg, t.Signature)
}

// Encode returns the wire form of t. A decoded transaction encodes to
// the body bytes it arrived with.
func (t *Tx) Encode() (types.Tx, error) {
	body, err := t.bodyBytes()
	if err != nil {
		return nil, err
	}
	data, err := cramberry.Marshal(&wireTx{Body: body, Signature: t.Signature})
	if err != nil {
		return nil, fmt.Errorf("encode tx: %w", err)
	}
	return data, nil
}

// Decode parses a wire transaction.
func Decode(raw types.Tx) (*Tx, error) {
	if len(raw) == 0 {
		return nil, malformed("empty transaction")
	}
	var w wireTx
	if err := cramberry.Unmarshal(raw, &w); err != nil {
		return nil, malformed("decode: %v", err)
	}
	if len(w.Body) == 0 {
		return nil, malformed("empty body")
	}
	t := &Tx{Signature: w.Signature, signed: w.Body}
	if err := cramberry.Unmarshal(w.Body, &t.Body); err != nil {
		return nil, malformed("decode body: %v", err)
	}
	return t, nil
}
