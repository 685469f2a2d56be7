package stakeledgergrpc

import (
	"errors"
	"strconv"
	"strings"

	"github.com/blockberries/stakeledger"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// A *stakeledger.HaltError crosses the wire as codes.Aborted with the
// message "<height> <reason>". stakeledger.ErrHalted, returned by reads
// on a halted node, is codes.Unavailable. Every other error is
// codes.Unknown.

func toStatus(err error) error {
	if h, ok := stakeledger.IsHalt(err); ok {
		return status.Error(codes.Aborted, strconv.FormatUint(h.Height, 10)+" "+h.Reason)
	}
	if errors.Is(err, stakeledger.ErrHalted) {
		return status.Error(codes.Unavailable, err.Error())
	}
	return status.Error(codes.Unknown, err.Error())
}

func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	if st.Code() == codes.Unavailable && st.Message() == stakeledger.ErrHalted.Error() {
		return stakeledger.ErrHalted
	}
	if st.Code() != codes.Aborted {
		return err
	}
	heightStr, reason, found := strings.Cut(st.Message(), " ")
	if !found {
		return err
	}
	height, perr := strconv.ParseUint(heightStr, 10, 64)
	if perr != nil {
		return err
	}
	return stakeledger.NewHaltError(height, reason)
}
