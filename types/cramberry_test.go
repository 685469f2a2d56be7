package types_test

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/blockberries/stakeledger/types"

	"github.com/blockberries/cramberry/pkg/cramberry"
)

// roundTrip marshals v, unmarshals into a new T, and returns it.
func roundTrip[T any](t *testing.T, v T) T {
	t.Helper()
	data, err := cramberry.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var out T
	if err := cramberry.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	return out
}

func validatorKey(b byte) types.PublicKey {
	data := make([]byte, 32)
	data[0] = b
	return types.PublicKey{Type: types.KeyTypeEd25519, Data: data}
}

func TestBeginBlockRequest_RoundTrip(t *testing.T) {
	v := types.BeginBlockRequest{
		Height:   9,
		Proposer: validatorKey(1),
		Evidence: []types.Evidence{
			{Type: types.EvidenceTypeDuplicateVote, Validator: validatorKey(2), Height: 7, TotalVotingPower: 1600},
			{Type: types.EvidenceTypeLightClient, Validator: validatorKey(3), Height: 8},
		},
	}
	got := roundTrip(t, v)
	if !reflect.DeepEqual(got, v) {
		t.Fatalf("BeginBlockRequest round-trip failed: got %+v, want %+v", got, v)
	}
}

func TestEndBlockResult_RoundTrip(t *testing.T) {
	v := types.EndBlockResult{
		ValidatorUpdates: []types.ValidatorUpdate{
			{PubKey: validatorKey(1), Power: 540},
			{PubKey: validatorKey(2), Power: 0},
		},
		Events: []types.Event{
			types.NewEvent("slash", "validator", validatorKey(1).String(), "burned", types.Uint(160)),
		},
	}
	got := roundTrip(t, v)
	if !reflect.DeepEqual(got, v) {
		t.Fatalf("EndBlockResult round-trip failed: got %+v, want %+v", got, v)
	}
}

func TestInfoResponse_RoundTrip(t *testing.T) {
	empty := roundTrip(t, types.InfoResponse{ChainID: "c"})
	if empty.LastBlock != nil || empty.ChainID != "c" {
		t.Fatalf("empty InfoResponse round-trip failed: %+v", empty)
	}

	v := types.InfoResponse{
		LastBlock: &types.BlockID{Height: 3, StateRoot: types.StateRoot{0xAB}},
		ChainID:   "c",
	}
	got := roundTrip(t, v)
	if got.LastBlock == nil || *got.LastBlock != *v.LastBlock {
		t.Fatalf("InfoResponse round-trip failed: got %+v", got)
	}
}

func TestStateQueryResult_RoundTrip(t *testing.T) {
	v := types.StateQueryResult{
		Code:   types.QueryPruned,
		Key:    []byte("addr/STAKE"),
		Value:  []byte{0x01},
		Height: 12,
		Info:   "height 1 is no longer retained",
	}
	got := roundTrip(t, v)
	if !reflect.DeepEqual(got, v) {
		t.Fatalf("StateQueryResult round-trip failed: got %+v, want %+v", got, v)
	}
}

func TestIdentityRecoversKey(t *testing.T) {
	pk := types.PublicKey{Type: types.KeyTypeSecp256k1, Data: []byte{0x02, 0x10, 0x20}}
	id := pk.Identity()
	if id.Bytes()[0] != byte(types.KeyTypeSecp256k1) {
		t.Fatalf("identity does not start with the key type: %x", id.Bytes())
	}
	if !id.PublicKey().Equal(pk) {
		t.Fatalf("identity %s does not recover %s", id, pk)
	}
	if types.Identity("").PublicKey().Data != nil {
		t.Fatal("empty identity should yield an empty key")
	}
}

func TestIdentityOrdersByKeyBytes(t *testing.T) {
	a, b := validatorKey(1).Identity(), validatorKey(2).Identity()
	if !(a < b) || bytes.Compare(a.Bytes(), b.Bytes()) >= 0 {
		t.Fatal("identities must order by key bytes")
	}
}

func TestEvidenceTypeString(t *testing.T) {
	cases := map[types.EvidenceType]string{
		types.EvidenceTypeDuplicateVote: "duplicate_vote",
		types.EvidenceTypeLightClient:   "light_client_attack",
		types.EvidenceType(9):           "unknown",
	}
	for typ, want := range cases {
		if typ.String() != want {
			t.Errorf("EvidenceType(%d).String() = %q, want %q", typ, typ.String(), want)
		}
	}
}

func TestNewEventIgnoresDanglingKey(t *testing.T) {
	e := types.NewEvent("transfer", "from", "a", "to")
	if len(e.Attributes) != 1 || e.Attributes[0].Key != "from" || !e.Attributes[0].Index {
		t.Fatalf("unexpected attributes: %+v", e.Attributes)
	}
}

// TestDeterminism verifies that the same struct always produces
// the same bytes (cramberry's core guarantee).
func TestDeterminism(t *testing.T) {
	v := types.FinalizedBlock{
		Height:   42,
		Proposer: validatorKey(0xAA),
		Txs:      []types.Tx{[]byte("a"), []byte("b")},
		Evidence: []types.Evidence{{Type: types.EvidenceTypeDuplicateVote, Validator: validatorKey(1), Height: 40}},
	}
	data1, err := cramberry.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	data2, err := cramberry.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data1, data2) {
		t.Fatalf("non-deterministic encoding:\n%x\n%x", data1, data2)
	}
}
