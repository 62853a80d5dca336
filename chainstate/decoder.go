/*
Package chainstate restores registry state of the Membership contract from its
raw storage items.

Storage items can be taken from any source: RPC node (findstates), local
blockchain or storage dump. Keys are expected without contract ID.
*/
package chainstate

import (
	"errors"
	"fmt"
	"maps"
	"math/big"
	"slices"

	"github.com/nspcc-dev/membership-contract/contracts/membership/membershipconst"
	"github.com/nspcc-dev/membership-contract/registry"
	"github.com/nspcc-dev/membership-contract/rpc/membership"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// Decoder accumulates storage items of the Membership contract. Decoder must
// be constructed using NewDecoder.
type Decoder struct {
	st registry.State

	index    map[util.Uint160][]uint64
	balances map[util.Uint160]uint64
	owned    map[util.Uint160]uint64
}

// NewDecoder returns empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{
		st:       registry.State{Tokens: make(map[uint64]registry.Token)},
		index:    make(map[util.Uint160][]uint64),
		balances: make(map[util.Uint160]uint64),
		owned:    make(map[util.Uint160]uint64),
	}
}

// Add decodes single storage item.
func (d *Decoder) Add(key, value []byte) error {
	if len(key) == 0 {
		return errors.New("empty key")
	}

	var err error

	switch prefix, body := key[0], key[1:]; prefix {
	case membershipconst.PrefixNextTokenID:
		d.st.NextTokenID, err = decodeUint(value)
	case membershipconst.PrefixMintLimit:
		d.st.MintLimit, err = decodeUint(value)
	case membershipconst.PrefixVotingAuthority:
		d.st.VotingAuthority, err = decodeAddress(value)
	case membershipconst.PrefixReputationAuthority:
		d.st.ReputationAuthority, err = decodeAddress(value)
	case membershipconst.PrefixToken:
		err = d.addToken(body, value)
	case membershipconst.PrefixOwnerIndex:
		err = d.addIndex(body, value)
	case membershipconst.PrefixBalance:
		var owner *util.Uint160
		owner, err = decodeAddress(body)
		if err == nil {
			d.balances[*owner], err = decodeUint(value)
		}
	case membershipconst.PrefixAccountToken:
		if len(body) <= util.Uint160Size {
			return fmt.Errorf("invalid account token key length %d", len(body))
		}
		owner, _ := util.Uint160DecodeBytesBE(body[:util.Uint160Size])
		d.owned[owner]++
	default:
		return fmt.Errorf("unknown key prefix 0x%02x", prefix)
	}

	if err != nil {
		return fmt.Errorf("decode item with prefix 0x%02x: %w", key[0], err)
	}
	return nil
}

func (d *Decoder) addToken(body, value []byte) error {
	id, err := bigToUint(bigint.FromBytes(body))
	if err != nil {
		return fmt.Errorf("token ID: %w", err)
	}

	item, err := stackitem.Deserialize(value)
	if err != nil {
		return fmt.Errorf("token %d: %w", id, err)
	}

	var tok membership.Token
	err = tok.FromStackItem(item)
	if err != nil {
		return fmt.Errorf("token %d: %w", id, err)
	}

	d.st.Tokens[id], err = tok.ToRegistry()
	if err != nil {
		return fmt.Errorf("token %d: %w", id, err)
	}
	return nil
}

func (d *Decoder) addIndex(body, value []byte) error {
	owner, err := decodeAddress(body)
	if err != nil {
		return err
	}

	item, err := stackitem.Deserialize(value)
	if err != nil {
		return fmt.Errorf("index of %s: %w", owner.StringLE(), err)
	}

	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return fmt.Errorf("index of %s: not an array", owner.StringLE())
	}

	ids := make([]uint64, 0, len(arr))
	for i := range arr {
		n, err := arr[i].TryInteger()
		if err == nil {
			var id uint64
			id, err = bigToUint(n)
			ids = append(ids, id)
		}
		if err != nil {
			return fmt.Errorf("index of %s: element #%d: %w", owner.StringLE(), i, err)
		}
	}

	d.index[*owner] = ids
	return nil
}

// State returns accumulated registry state.
func (d *Decoder) State() registry.State {
	st := d.st
	st.Tokens = maps.Clone(d.st.Tokens)
	return st
}

// Registry loads accumulated state into the registry and checks that
// derived records (owner index, balances and account tokens) stored by the
// contract match the loaded registry. Records of principals owning no tokens
// are an error.
func (d *Decoder) Registry() (*registry.Registry, error) {
	r, err := registry.Load(d.State())
	if err != nil {
		return nil, err
	}

	owners := r.Owners()
	if len(owners) != len(d.index) {
		return nil, fmt.Errorf("owner index has %d owners, tokens have %d", len(d.index), len(owners))
	}

	for _, owner := range owners {
		if exp, act := r.TokensByOwner(owner), d.index[owner]; !slices.Equal(exp, act) {
			return nil, fmt.Errorf("owner index of %s mismatch: stored %v, expected %v", owner.StringLE(), act, exp)
		}
		if exp, act := r.BalanceOf(owner), d.balances[owner]; exp != act {
			return nil, fmt.Errorf("balance of %s mismatch: stored %d, expected %d", owner.StringLE(), act, exp)
		}
		if exp, act := r.BalanceOf(owner), d.owned[owner]; exp != act {
			return nil, fmt.Errorf("%s owns %d tokens, expected %d", owner.StringLE(), act, exp)
		}
	}

	for p, n := range d.balances {
		if r.BalanceOf(p) == 0 {
			return nil, fmt.Errorf("stored balance %d of %s owning no tokens", n, p.StringLE())
		}
	}
	for p, n := range d.owned {
		if r.BalanceOf(p) == 0 {
			return nil, fmt.Errorf("%d stored tokens of %s owning no tokens", n, p.StringLE())
		}
	}

	return r, nil
}

func decodeUint(b []byte) (uint64, error) {
	return bigToUint(bigint.FromBytes(b))
}

func bigToUint(n *big.Int) (uint64, error) {
	if !n.IsUint64() {
		return 0, fmt.Errorf("integer %s is out of range", n)
	}
	return n.Uint64(), nil
}

func decodeAddress(b []byte) (*util.Uint160, error) {
	u, err := util.Uint160DecodeBytesBE(b)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
