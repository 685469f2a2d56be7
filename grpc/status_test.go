package stakeledgergrpc

import (
	"errors"
	"testing"

	"github.com/blockberries/stakeledger"
)

func TestStatus_HaltRoundTrip(t *testing.T) {
	err := fromStatus(toStatus(stakeledger.NewHaltError(7, "mature unbondings: broken")))
	h, ok := stakeledger.IsHalt(err)
	if !ok {
		t.Fatalf("expected a halt error, got %v", err)
	}
	if h.Height != 7 || h.Reason != "mature unbondings: broken" {
		t.Fatalf("halt not preserved: %+v", h)
	}
}

func TestStatus_HaltedReads(t *testing.T) {
	err := fromStatus(toStatus(stakeledger.ErrHalted))
	if !errors.Is(err, stakeledger.ErrHalted) {
		t.Fatalf("expected ErrHalted, got %v", err)
	}
	if _, ok := stakeledger.IsHalt(err); ok {
		t.Fatal("a refused read is not itself a halt")
	}
}

func TestStatus_OtherErrorsStayOpaque(t *testing.T) {
	err := fromStatus(toStatus(errors.New("transient")))
	if errors.Is(err, stakeledger.ErrHalted) {
		t.Fatal("plain error mapped to ErrHalted")
	}
	if _, ok := stakeledger.IsHalt(err); ok {
		t.Fatal("plain error mapped to a halt")
	}
}
