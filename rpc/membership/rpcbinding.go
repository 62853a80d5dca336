// Package membership contains RPC wrappers for the Membership contract.
package membership

import (
	"errors"
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/nep11"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// Token is a contract-specific membership.Token type used by its methods.
type Token struct {
	Owner            util.Uint160
	AchievementsHash string
	InductionHeight  *big.Int
	ReputationScore  *big.Int
	Active           bool
}

// AuthorityBoundEvent represents "AuthorityBound" event emitted by the contract.
type AuthorityBoundEvent struct {
	Role      string
	Authority util.Uint160
}

// ReputationUpdatedEvent represents "ReputationUpdated" event emitted by the contract.
type ReputationUpdatedEvent struct {
	TokenID *big.Int
	Score   *big.Int
}

// StatusChangedEvent represents "StatusChanged" event emitted by the contract.
type StatusChangedEvent struct {
	TokenID *big.Int
	Active  bool
}

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	nep11.Invoker
}

// Actor is used by Contract to call state-changing methods.
type Actor interface {
	Invoker

	nep11.Actor

	MakeCall(contract util.Uint160, method string, params ...any) (*transaction.Transaction, error)
	MakeRun(script []byte) (*transaction.Transaction, error)
	MakeUnsignedCall(contract util.Uint160, method string, attrs []transaction.Attribute, params ...any) (*transaction.Transaction, error)
	MakeUnsignedRun(script []byte, attrs []transaction.Attribute) (*transaction.Transaction, error)
	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)
	SendRun(script []byte) (util.Uint256, uint32, error)
}

// ContractReader implements safe contract methods.
type ContractReader struct {
	nep11.NonDivisibleReader
	invoker Invoker
	hash    util.Uint160
}

// Contract implements all contract methods.
type Contract struct {
	ContractReader
	nep11.BaseWriter
	actor Actor
	hash  util.Uint160
}

// NewReader creates an instance of ContractReader using provided contract hash and the given Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *ContractReader {
	return &ContractReader{*nep11.NewNonDivisibleReader(invoker, hash), invoker, hash}
}

// New creates an instance of Contract using provided contract hash and the given Actor.
func New(actor Actor, hash util.Uint160) *Contract {
	var nep11ndt = nep11.NewNonDivisible(actor, hash)
	return &Contract{ContractReader{nep11ndt.NonDivisibleReader, actor, hash}, nep11ndt.BaseWriter, actor, hash}
}

// Hash returns hash of the contract.
func (c *ContractReader) Hash() util.Uint160 {
	return c.hash
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "version"))
}

// LastTokenID invokes `lastTokenID` method of contract.
func (c *ContractReader) LastTokenID() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "lastTokenID"))
}

// MintLimit invokes `mintLimit` method of contract.
func (c *ContractReader) MintLimit() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "mintLimit"))
}

// VotingAuthority invokes `votingAuthority` method of contract. The second
// value is false if the authority is not bound yet.
func (c *ContractReader) VotingAuthority() (util.Uint160, bool, error) {
	return optionalUint160(c.invoker.Call(c.hash, "votingAuthority"))
}

// ReputationAuthority invokes `reputationAuthority` method of contract. The
// second value is false if the authority is not bound yet.
func (c *ContractReader) ReputationAuthority() (util.Uint160, bool, error) {
	return optionalUint160(c.invoker.Call(c.hash, "reputationAuthority"))
}

// TokenURI invokes `tokenURI` method of contract. The second value is false
// if the token doesn't exist.
func (c *ContractReader) TokenURI(id *big.Int) (string, bool, error) {
	item, err := unwrap.Item(c.invoker.Call(c.hash, "tokenURI", id))
	if err != nil || isNull(item) {
		return "", false, err
	}
	s, err := itemToUTF8String(item)
	return s, err == nil, err
}

// GetOwner invokes `getOwner` method of contract. The second value is false
// if the token doesn't exist.
func (c *ContractReader) GetOwner(id *big.Int) (util.Uint160, bool, error) {
	return optionalUint160(c.invoker.Call(c.hash, "getOwner", id))
}

// GetMetadata invokes `getMetadata` method of contract. It returns nil
// without an error if the token doesn't exist.
func (c *ContractReader) GetMetadata(id *big.Int) (*Token, error) {
	item, err := unwrap.Item(c.invoker.Call(c.hash, "getMetadata", id))
	if err != nil || isNull(item) {
		return nil, err
	}
	return itemToToken(item, nil)
}

// GetTokensByOwner invokes `getTokensByOwner` method of contract.
func (c *ContractReader) GetTokensByOwner(owner util.Uint160) ([]*big.Int, error) {
	return unwrap.ArrayOfBigInts(c.invoker.Call(c.hash, "getTokensByOwner", owner))
}

// IsMember invokes `isMember` method of contract.
func (c *ContractReader) IsMember(owner util.Uint160) (bool, error) {
	return unwrap.Bool(c.invoker.Call(c.hash, "isMember", owner))
}

func (c *Contract) scriptForBindVotingAuthority(authority util.Uint160) ([]byte, error) {
	return smartcontract.CreateCallWithAssertScript(c.hash, "bindVotingAuthority", authority)
}

// BindVotingAuthority creates a transaction invoking `bindVotingAuthority` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) BindVotingAuthority(authority util.Uint160) (util.Uint256, uint32, error) {
	script, err := c.scriptForBindVotingAuthority(authority)
	if err != nil {
		return util.Uint256{}, 0, err
	}
	return c.actor.SendRun(script)
}

// BindVotingAuthorityTransaction creates a transaction invoking `bindVotingAuthority` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) BindVotingAuthorityTransaction(authority util.Uint160) (*transaction.Transaction, error) {
	script, err := c.scriptForBindVotingAuthority(authority)
	if err != nil {
		return nil, err
	}
	return c.actor.MakeRun(script)
}

// BindVotingAuthorityUnsigned creates a transaction invoking `bindVotingAuthority` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) BindVotingAuthorityUnsigned(authority util.Uint160) (*transaction.Transaction, error) {
	script, err := c.scriptForBindVotingAuthority(authority)
	if err != nil {
		return nil, err
	}
	return c.actor.MakeUnsignedRun(script, nil)
}

func (c *Contract) scriptForBindReputationAuthority(authority util.Uint160) ([]byte, error) {
	return smartcontract.CreateCallWithAssertScript(c.hash, "bindReputationAuthority", authority)
}

// BindReputationAuthority creates a transaction invoking `bindReputationAuthority` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) BindReputationAuthority(authority util.Uint160) (util.Uint256, uint32, error) {
	script, err := c.scriptForBindReputationAuthority(authority)
	if err != nil {
		return util.Uint256{}, 0, err
	}
	return c.actor.SendRun(script)
}

// BindReputationAuthorityTransaction creates a transaction invoking `bindReputationAuthority` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) BindReputationAuthorityTransaction(authority util.Uint160) (*transaction.Transaction, error) {
	script, err := c.scriptForBindReputationAuthority(authority)
	if err != nil {
		return nil, err
	}
	return c.actor.MakeRun(script)
}

// BindReputationAuthorityUnsigned creates a transaction invoking `bindReputationAuthority` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) BindReputationAuthorityUnsigned(authority util.Uint160) (*transaction.Transaction, error) {
	script, err := c.scriptForBindReputationAuthority(authority)
	if err != nil {
		return nil, err
	}
	return c.actor.MakeUnsignedRun(script, nil)
}

// Mint creates a transaction invoking `mint` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Mint(recipient util.Uint160, achievementsHash string, inductionHeight *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "mint", recipient, achievementsHash, inductionHeight)
}

// MintTransaction creates a transaction invoking `mint` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) MintTransaction(recipient util.Uint160, achievementsHash string, inductionHeight *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "mint", recipient, achievementsHash, inductionHeight)
}

// MintUnsigned creates a transaction invoking `mint` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) MintUnsigned(recipient util.Uint160, achievementsHash string, inductionHeight *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "mint", nil, recipient, achievementsHash, inductionHeight)
}

func (c *Contract) scriptForUpdateReputation(id *big.Int, score *big.Int) ([]byte, error) {
	return smartcontract.CreateCallWithAssertScript(c.hash, "updateReputation", id, score)
}

// UpdateReputation creates a transaction invoking `updateReputation` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) UpdateReputation(id *big.Int, score *big.Int) (util.Uint256, uint32, error) {
	script, err := c.scriptForUpdateReputation(id, score)
	if err != nil {
		return util.Uint256{}, 0, err
	}
	return c.actor.SendRun(script)
}

// UpdateReputationTransaction creates a transaction invoking `updateReputation` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) UpdateReputationTransaction(id *big.Int, score *big.Int) (*transaction.Transaction, error) {
	script, err := c.scriptForUpdateReputation(id, score)
	if err != nil {
		return nil, err
	}
	return c.actor.MakeRun(script)
}

// UpdateReputationUnsigned creates a transaction invoking `updateReputation` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) UpdateReputationUnsigned(id *big.Int, score *big.Int) (*transaction.Transaction, error) {
	script, err := c.scriptForUpdateReputation(id, score)
	if err != nil {
		return nil, err
	}
	return c.actor.MakeUnsignedRun(script, nil)
}

func (c *Contract) scriptForSetStatus(id *big.Int, active bool) ([]byte, error) {
	return smartcontract.CreateCallWithAssertScript(c.hash, "setStatus", id, active)
}

// SetStatus creates a transaction invoking `setStatus` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) SetStatus(id *big.Int, active bool) (util.Uint256, uint32, error) {
	script, err := c.scriptForSetStatus(id, active)
	if err != nil {
		return util.Uint256{}, 0, err
	}
	return c.actor.SendRun(script)
}

// SetStatusTransaction creates a transaction invoking `setStatus` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) SetStatusTransaction(id *big.Int, active bool) (*transaction.Transaction, error) {
	script, err := c.scriptForSetStatus(id, active)
	if err != nil {
		return nil, err
	}
	return c.actor.MakeRun(script)
}

// SetStatusUnsigned creates a transaction invoking `setStatus` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) SetStatusUnsigned(id *big.Int, active bool) (*transaction.Transaction, error) {
	script, err := c.scriptForSetStatus(id, active)
	if err != nil {
		return nil, err
	}
	return c.actor.MakeUnsignedRun(script, nil)
}

// Update creates a transaction invoking `update` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Update(nef []byte, manifest string, data any) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "update", nef, manifest, data)
}

// UpdateTransaction creates a transaction invoking `update` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) UpdateTransaction(nef []byte, manifest string, data any) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "update", nef, manifest, data)
}

// UpdateUnsigned creates a transaction invoking `update` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) UpdateUnsigned(nef []byte, manifest string, data any) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "update", nil, nef, manifest, data)
}

func optionalUint160(r *result.Invoke, err error) (util.Uint160, bool, error) {
	item, err := unwrap.Item(r, err)
	if err != nil || isNull(item) {
		return util.Uint160{}, false, err
	}
	b, err := item.TryBytes()
	if err != nil {
		return util.Uint160{}, false, err
	}
	u, err := util.Uint160DecodeBytesBE(b)
	if err != nil {
		return util.Uint160{}, false, err
	}
	return u, true, nil
}

func isNull(item stackitem.Item) bool {
	_, ok := item.(stackitem.Null)
	return ok
}

func itemToUTF8String(item stackitem.Item) (string, error) {
	b, err := item.TryBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.New("not a UTF-8 string")
	}
	return string(b), nil
}

// itemToToken converts stack item into *Token.
func itemToToken(item stackitem.Item, err error) (*Token, error) {
	if err != nil {
		return nil, err
	}
	var res = new(Token)
	err = res.FromStackItem(item)
	return res, err
}

// FromStackItem retrieves fields of Token from the given
// [stackitem.Item] or returns an error if it's not possible to do to so.
func (res *Token) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 5 {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err   error
	)
	index++
	res.Owner, err = func(item stackitem.Item) (util.Uint160, error) {
		b, err := item.TryBytes()
		if err != nil {
			return util.Uint160{}, err
		}
		u, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return util.Uint160{}, err
		}
		return u, nil
	}(arr[index])
	if err != nil {
		return fmt.Errorf("field Owner: %w", err)
	}

	index++
	res.AchievementsHash, err = itemToUTF8String(arr[index])
	if err != nil {
		return fmt.Errorf("field AchievementsHash: %w", err)
	}

	index++
	res.InductionHeight, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field InductionHeight: %w", err)
	}

	index++
	res.ReputationScore, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field ReputationScore: %w", err)
	}

	index++
	res.Active, err = arr[index].TryBool()
	if err != nil {
		return fmt.Errorf("field Active: %w", err)
	}

	return nil
}
