package ledger

import (
	"encoding/binary"

	"github.com/blockberries/stakeledger/crypto"
	"github.com/blockberries/stakeledger/types"
)

// Namespace prefixes of the persisted layout.
const (
	prefixAccount    byte = 0x01
	prefixBalance    byte = 0x02
	prefixAsset      byte = 0x03
	prefixValidator  byte = 0x04
	prefixDelegation byte = 0x05
	prefixUnbonding  byte = 0x06
	prefixReward     byte = 0x07
	prefixFeePool    byte = 0x08
	prefixEvidence   byte = 0x09
	prefixParams     byte = 0x0a
)

// MetaKey holds the last committed height and root. It lives in the
// store only and is not part of the state root.
var MetaKey = []byte{0xff, 'm', 'e', 't', 'a'}

func accountKey(addr crypto.Address) []byte {
	return append([]byte{prefixAccount}, addr[:]...)
}

func balancePrefix(addr crypto.Address) []byte {
	return append([]byte{prefixBalance}, addr[:]...)
}

func balanceKey(addr crypto.Address, code AssetCode) []byte {
	return append(balancePrefix(addr), string(code)...)
}

func assetKey(code AssetCode) []byte {
	return append([]byte{prefixAsset}, string(code)...)
}

func validatorKey(id types.Identity) []byte {
	return append([]byte{prefixValidator}, string(id)...)
}

// identity segments are length prefixed so a validator's delegations
// form one contiguous key range
func appendIdentity(b []byte, id types.Identity) []byte {
	b = append(b, byte(len(id)))
	return append(b, string(id)...)
}

func delegationPrefix(id types.Identity) []byte {
	return appendIdentity([]byte{prefixDelegation}, id)
}

func delegationKey(id types.Identity, delegator crypto.Address) []byte {
	return append(delegationPrefix(id), delegator[:]...)
}

func unbondingKey(maturity uint64, id types.Identity, delegator crypto.Address) []byte {
	b := make([]byte, 9, 9+1+len(id)+crypto.AddressLength)
	b[0] = prefixUnbonding
	binary.BigEndian.PutUint64(b[1:], maturity)
	b = appendIdentity(b, id)
	return append(b, delegator[:]...)
}

func rewardKey(addr crypto.Address) []byte {
	return append([]byte{prefixReward}, addr[:]...)
}

func evidenceKey(id types.Identity, height uint64) []byte {
	b := appendIdentity([]byte{prefixEvidence}, id)
	return binary.BigEndian.AppendUint64(b, height)
}

var (
	feePoolKey = []byte{prefixFeePool}
	paramsKey  = []byte{prefixParams}
)

func encodeUint(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

func decodeUint(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}
