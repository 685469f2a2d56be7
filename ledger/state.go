// Package ledger holds the chain state: balances, assets and the
// staking records, kept in an ordered copy-on-write tree.
//
// A State is the single writable working copy of an open block.
// Shadow returns a disposable copy that is merged back only when a
// whole transaction succeeds. Snapshot freezes the state into an
// immutable generation that readers may use concurrently with the
// next block.
package ledger

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/google/btree"

	"github.com/blockberries/stakeledger/crypto"
	"github.com/blockberries/stakeledger/kv"
	"github.com/blockberries/stakeledger/types"
)

const treeDegree = 32

type item struct {
	key string
	val []byte
}

func lessItem(a, b item) bool { return a.key < b.key }

func lessString(a, b string) bool { return a < b }

func mustEncode(v any) []byte {
	b, err := cramberry.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("ledger: encode %T: %v", v, err))
	}
	return b
}

func mustDecode[T any](key string, b []byte) T {
	var v T
	if err := cramberry.Unmarshal(b, &v); err != nil {
		panic(fmt.Sprintf("ledger: corrupt record at %x: %v", key, err))
	}
	return v
}

// reader serves typed reads over a tree.
type reader struct {
	tree *btree.BTreeG[item]
}

func (r reader) get(key []byte) ([]byte, bool) {
	it, ok := r.tree.Get(item{key: string(key)})
	return it.val, ok
}

func (r reader) iterate(prefix []byte, fn func(key string, val []byte) bool) {
	p := string(prefix)
	r.tree.AscendGreaterOrEqual(item{key: p}, func(it item) bool {
		if !strings.HasPrefix(it.key, p) {
			return false
		}
		return fn(it.key, it.val)
	})
}

// Len returns the number of entries in the state.
func (r reader) Len() int { return r.tree.Len() }

// Root computes the state root over every entry.
func (r reader) Root() types.StateRoot { return merkleRoot(r.tree) }

// Params returns the chain parameters.
func (r reader) Params() Params {
	b, ok := r.get(paramsKey)
	if !ok {
		return Params{}
	}
	return mustDecode[Params](string(paramsKey), b)
}

// Account returns the account record; unknown accounts start at
// sequence zero.
func (r reader) Account(addr crypto.Address) Account {
	k := accountKey(addr)
	b, ok := r.get(k)
	if !ok {
		return Account{Address: addr}
	}
	return mustDecode[Account](string(k), b)
}

// Balance returns the spendable amount of code held by addr.
func (r reader) Balance(addr crypto.Address, code AssetCode) uint64 {
	b, _ := r.get(balanceKey(addr, code))
	return decodeUint(b)
}

// Balances visits the non-zero balances of addr in code order.
func (r reader) Balances(addr crypto.Address, fn func(code AssetCode, amount uint64) bool) {
	prefix := balancePrefix(addr)
	r.iterate(prefix, func(key string, val []byte) bool {
		return fn(AssetCode(key[len(prefix):]), decodeUint(val))
	})
}

// Asset returns the definition of code.
func (r reader) Asset(code AssetCode) (Asset, bool) {
	k := assetKey(code)
	b, ok := r.get(k)
	if !ok {
		return Asset{}, false
	}
	return mustDecode[Asset](string(k), b), true
}

// Assets visits every asset definition in code order.
func (r reader) Assets(fn func(Asset) bool) {
	r.iterate([]byte{prefixAsset}, func(key string, val []byte) bool {
		return fn(mustDecode[Asset](key, val))
	})
}

// Validator returns the validator with identity id.
func (r reader) Validator(id types.Identity) (Validator, bool) {
	k := validatorKey(id)
	b, ok := r.get(k)
	if !ok {
		return Validator{}, false
	}
	return mustDecode[Validator](string(k), b), true
}

// Validators visits every validator in ascending identity order.
func (r reader) Validators(fn func(Validator) bool) {
	r.iterate([]byte{prefixValidator}, func(key string, val []byte) bool {
		return fn(mustDecode[Validator](key, val))
	})
}

// Delegation returns the delegation of delegator to id.
func (r reader) Delegation(id types.Identity, delegator crypto.Address) (Delegation, bool) {
	k := delegationKey(id, delegator)
	b, ok := r.get(k)
	if !ok {
		return Delegation{}, false
	}
	return mustDecode[Delegation](string(k), b), true
}

// Delegations visits the delegations to id in ascending delegator
// address order.
func (r reader) Delegations(id types.Identity, fn func(Delegation) bool) {
	r.iterate(delegationPrefix(id), func(key string, val []byte) bool {
		return fn(mustDecode[Delegation](key, val))
	})
}

// DelegationsByDelegator returns every delegation made by addr,
// ordered by validator identity.
func (r reader) DelegationsByDelegator(addr crypto.Address) []Delegation {
	var out []Delegation
	r.iterate([]byte{prefixDelegation}, func(key string, val []byte) bool {
		if strings.HasSuffix(key, string(addr[:])) {
			d := mustDecode[Delegation](key, val)
			if d.Delegator == addr {
				out = append(out, d)
			}
		}
		return true
	})
	return out
}

// UnbondingEntry returns a pending entry.
func (r reader) UnbondingEntry(maturity uint64, id types.Identity, delegator crypto.Address) (UnbondingEntry, bool) {
	k := unbondingKey(maturity, id, delegator)
	b, ok := r.get(k)
	if !ok {
		return UnbondingEntry{}, false
	}
	return mustDecode[UnbondingEntry](string(k), b), true
}

// Unbondings visits every pending entry ordered by maturity height,
// then validator identity, then delegator.
func (r reader) Unbondings(fn func(UnbondingEntry) bool) {
	r.iterate([]byte{prefixUnbonding}, func(key string, val []byte) bool {
		return fn(mustDecode[UnbondingEntry](key, val))
	})
}

// DueUnbondings returns the entries that mature at or before height.
func (r reader) DueUnbondings(height uint64) []UnbondingEntry {
	var due []UnbondingEntry
	r.Unbondings(func(e UnbondingEntry) bool {
		if e.MaturityHeight > height {
			return false
		}
		due = append(due, e)
		return true
	})
	return due
}

// UnbondingsByDelegator returns the pending entries of addr.
func (r reader) UnbondingsByDelegator(addr crypto.Address) []UnbondingEntry {
	var out []UnbondingEntry
	r.Unbondings(func(e UnbondingEntry) bool {
		if e.Delegator == addr {
			out = append(out, e)
		}
		return true
	})
	return out
}

// Reward returns the unclaimed rewards of addr.
func (r reader) Reward(addr crypto.Address) uint64 {
	b, _ := r.get(rewardKey(addr))
	return decodeUint(b)
}

// Rewards visits every non-zero reward record in address order.
func (r reader) Rewards(fn func(addr crypto.Address, amount uint64) bool) {
	r.iterate([]byte{prefixReward}, func(key string, val []byte) bool {
		var addr crypto.Address
		copy(addr[:], key[1:])
		return fn(addr, decodeUint(val))
	})
}

// FeePool returns the fees collected in the current epoch.
func (r reader) FeePool() uint64 {
	b, _ := r.get(feePoolKey)
	return decodeUint(b)
}

// HasEvidence reports whether the infraction of id at height has
// already been punished.
func (r reader) HasEvidence(id types.Identity, height uint64) bool {
	_, ok := r.get(evidenceKey(id, height))
	return ok
}

// State is the writable working copy of the ledger.
type State struct {
	reader
	// keys changed since the last commit
	dirty *btree.BTreeG[string]
}

// New returns an empty state.
func New() *State {
	return &State{
		reader: reader{tree: btree.NewG(treeDegree, lessItem)},
		dirty:  btree.NewG(treeDegree, lessString),
	}
}

func (s *State) set(key, val []byte) {
	k := string(key)
	s.tree.ReplaceOrInsert(item{key: k, val: val})
	s.dirty.ReplaceOrInsert(k)
}

func (s *State) del(key []byte) {
	k := string(key)
	if _, ok := s.tree.Delete(item{key: k}); ok {
		s.dirty.ReplaceOrInsert(k)
	}
}

// SetParams stores the chain parameters.
func (s *State) SetParams(p Params) { s.set(paramsKey, mustEncode(p)) }

// SetAccount stores an account record.
func (s *State) SetAccount(a Account) { s.set(accountKey(a.Address), mustEncode(a)) }

// SetBalance stores a balance; zero balances are removed.
func (s *State) SetBalance(addr crypto.Address, code AssetCode, amount uint64) {
	if amount == 0 {
		s.del(balanceKey(addr, code))
		return
	}
	s.set(balanceKey(addr, code), encodeUint(amount))
}

// AddBalance credits addr.
func (s *State) AddBalance(addr crypto.Address, code AssetCode, amount uint64) error {
	bal, err := SafeAdd(s.Balance(addr, code), amount)
	if err != nil {
		return err
	}
	s.SetBalance(addr, code, bal)
	return nil
}

// SubBalance debits addr.
func (s *State) SubBalance(addr crypto.Address, code AssetCode, amount uint64) error {
	bal, err := SafeSub(s.Balance(addr, code), amount)
	if err != nil {
		return err
	}
	s.SetBalance(addr, code, bal)
	return nil
}

// SetAsset stores an asset definition.
func (s *State) SetAsset(a Asset) { s.set(assetKey(a.Code), mustEncode(a)) }

// SetValidator stores a validator record.
func (s *State) SetValidator(v Validator) { s.set(validatorKey(v.Identity()), mustEncode(v)) }

// DeleteValidator removes a validator record.
func (s *State) DeleteValidator(id types.Identity) { s.del(validatorKey(id)) }

// SetDelegation stores a delegation; zero amounts are removed.
func (s *State) SetDelegation(d Delegation) {
	k := delegationKey(d.Validator.Identity(), d.Delegator)
	if d.Amount == 0 {
		s.del(k)
		return
	}
	s.set(k, mustEncode(d))
}

// SetUnbondingEntry stores an entry; zero amounts are removed.
func (s *State) SetUnbondingEntry(e UnbondingEntry) {
	k := unbondingKey(e.MaturityHeight, e.Validator.Identity(), e.Delegator)
	if e.Amount == 0 {
		s.del(k)
		return
	}
	s.set(k, mustEncode(e))
}

// DeleteUnbondingEntry removes an entry.
func (s *State) DeleteUnbondingEntry(e UnbondingEntry) {
	s.del(unbondingKey(e.MaturityHeight, e.Validator.Identity(), e.Delegator))
}

// SetReward stores the unclaimed rewards of addr.
func (s *State) SetReward(addr crypto.Address, amount uint64) {
	if amount == 0 {
		s.del(rewardKey(addr))
		return
	}
	s.set(rewardKey(addr), encodeUint(amount))
}

// SetFeePool stores the current epoch fee pool.
func (s *State) SetFeePool(amount uint64) {
	if amount == 0 {
		s.del(feePoolKey)
		return
	}
	s.set(feePoolKey, encodeUint(amount))
}

// MarkEvidence records that the infraction of id at height was
// punished at slashHeight.
func (s *State) MarkEvidence(id types.Identity, height, slashHeight uint64) {
	s.set(evidenceKey(id, height), encodeUint(slashHeight))
}

// Shadow returns a disposable copy of s. Writes to the shadow are
// invisible to s until Merge.
func (s *State) Shadow() *State {
	return &State{
		reader: reader{tree: s.tree.Clone()},
		dirty:  s.dirty.Clone(),
	}
}

// Merge adopts every change made to shadow. The shadow must have
// been derived from s with no intervening writes to s, and must not
// be used afterwards.
func (s *State) Merge(shadow *State) {
	s.tree = shadow.tree
	s.dirty = shadow.dirty
	shadow.tree, shadow.dirty = nil, nil
}

// DirtyLen returns the number of keys changed since the last commit.
func (s *State) DirtyLen() int { return s.dirty.Len() }

// WriteTo stages every changed key into w.
func (s *State) WriteTo(w kv.Putter) error {
	var err error
	s.dirty.Ascend(func(k string) bool {
		if val, ok := s.get([]byte(k)); ok {
			err = w.Put([]byte(k), val)
		} else {
			err = w.Delete([]byte(k))
		}
		return err == nil
	})
	return err
}

// Snapshot freezes the current contents into an immutable
// generation at height and clears the change set.
func (s *State) Snapshot(height uint64) *Snapshot {
	frozen := s.tree.Clone()
	s.dirty.Clear(false)
	return &Snapshot{
		reader: reader{tree: frozen},
		height: height,
		root:   merkleRoot(frozen),
	}
}

// Snapshot is an immutable committed generation of the state.
// It is safe for concurrent use.
type Snapshot struct {
	reader
	height uint64
	root   types.StateRoot

	// Clone writes the copy-on-write context of the source tree.
	cloneMu sync.Mutex
}

// Height returns the height the snapshot was committed at.
func (s *Snapshot) Height() uint64 { return s.height }

// Root returns the state root of the snapshot.
func (s *Snapshot) Root() types.StateRoot { return s.root }

// Working returns a fresh writable copy based on the snapshot.
func (s *Snapshot) Working() *State {
	s.cloneMu.Lock()
	tree := s.tree.Clone()
	s.cloneMu.Unlock()
	return &State{
		reader: reader{tree: tree},
		dirty:  btree.NewG(treeDegree, lessString),
	}
}

// Reader is the read-only view shared by State and Snapshot.
type Reader interface {
	Len() int
	Root() types.StateRoot
	Params() Params
	Account(addr crypto.Address) Account
	Balance(addr crypto.Address, code AssetCode) uint64
	Balances(addr crypto.Address, fn func(code AssetCode, amount uint64) bool)
	Asset(code AssetCode) (Asset, bool)
	Assets(fn func(Asset) bool)
	Validator(id types.Identity) (Validator, bool)
	Validators(fn func(Validator) bool)
	Delegation(id types.Identity, delegator crypto.Address) (Delegation, bool)
	Delegations(id types.Identity, fn func(Delegation) bool)
	DelegationsByDelegator(addr crypto.Address) []Delegation
	Unbondings(fn func(UnbondingEntry) bool)
	UnbondingsByDelegator(addr crypto.Address) []UnbondingEntry
	Reward(addr crypto.Address) uint64
	Rewards(fn func(addr crypto.Address, amount uint64) bool)
	FeePool() uint64
	Holdings(code AssetCode) (Holdings, error)
}

var (
	_ Reader = (*State)(nil)
	_ Reader = (*Snapshot)(nil)
)
