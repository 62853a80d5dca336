/*
Package registry implements the membership registry state machine: a set of
soulbound membership tokens minted by a bound voting authority and curated by
a bound reputation authority.

Registry is a pure in-memory model. The invoking principal and the current
block height are passed into every operation explicitly, so the same rules
can be evaluated off-chain, in tests and against the on-chain contract state.
Each mutating operation either fully applies or returns an Error and leaves
the state untouched.

Registry is not safe for concurrent use. Calls must be serialized by the
caller.
*/
package registry

import (
	"slices"

	"github.com/nspcc-dev/membership-contract/contracts/membership/membershipconst"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Principal identifies a caller, an account or an authority contract.
type Principal = util.Uint160

// NullPrincipal is the reserved burn address. It can't be bound as an
// authority and can't receive tokens.
var NullPrincipal Principal

// Token is a membership token record.
type Token struct {
	Owner            Principal
	AchievementsHash string
	InductionHeight  uint32
	ReputationScore  int64
	Active           bool
}

// authority is a principal that may be set once and never changed.
type authority struct {
	principal Principal
	bound     bool
}

// get returns bound principal.
func (a authority) get() (Principal, bool) {
	return a.principal, a.bound
}

// bind performs the only allowed transition: unset -> set.
func (a *authority) bind(p Principal, invalid, bound error) error {
	if p.Equals(NullPrincipal) {
		return invalid
	}
	if a.bound {
		return bound
	}
	a.principal, a.bound = p, true
	return nil
}

// Registry is the membership registry state.
type Registry struct {
	nextTokenID uint64
	mintLimit   uint64

	voting     authority
	reputation authority

	tokens map[uint64]Token
	// owner -> first MaxIndexedTokens IDs minted to the owner.
	ownerIndex map[Principal][]uint64
	// owner -> number of all owned tokens.
	balances map[Principal]uint64
}

// New returns empty Registry which allows minting of token IDs below
// mintLimit. Zero mintLimit selects membershipconst.DefaultMintLimit.
func New(mintLimit uint64) *Registry {
	if mintLimit == 0 {
		mintLimit = membershipconst.DefaultMintLimit
	}
	return &Registry{
		nextTokenID: 1,
		mintLimit:   mintLimit,
		tokens:      make(map[uint64]Token),
		ownerIndex:  make(map[Principal][]uint64),
		balances:    make(map[Principal]uint64),
	}
}

// BindVotingAuthority binds principal allowed to mint tokens. It fails with
// ErrInvalidVotingAuthority for NullPrincipal and with
// ErrVotingAuthorityBound if the authority has already been bound.
func (r *Registry) BindVotingAuthority(p Principal) error {
	return r.voting.bind(p, ErrInvalidVotingAuthority, ErrVotingAuthorityBound)
}

// BindReputationAuthority binds principal allowed to change reputation and
// status of tokens. Rules are the same as for BindVotingAuthority.
func (r *Registry) BindReputationAuthority(p Principal) error {
	return r.reputation.bind(p, ErrInvalidReputationAuthority, ErrReputationAuthorityBound)
}

// VotingAuthority returns bound voting authority.
func (r *Registry) VotingAuthority() (Principal, bool) {
	return r.voting.get()
}

// ReputationAuthority returns bound reputation authority.
func (r *Registry) ReputationAuthority() (Principal, bool) {
	return r.reputation.get()
}

// Mint issues a new token to recipient on behalf of caller and returns its
// ID. Checks are done in the following order, the first failed one wins:
//  1. mint limit (ErrMintLimitReached)
//  2. voting authority is bound (ErrNoVotingAuthority)
//  3. caller is the voting authority (ErrNotAuthorized)
//  4. recipient is not NullPrincipal (ErrInvalidRecipient)
//  5. achievementsHash is not empty and inductionHeight is not in the past
//     relative to currentHeight (ErrInvalidMetadata)
//  6. token ID is free (ErrAlreadyMinted)
func (r *Registry) Mint(caller, recipient Principal, achievementsHash string, inductionHeight, currentHeight uint32) (uint64, error) {
	if r.nextTokenID >= r.mintLimit {
		return 0, ErrMintLimitReached
	}

	voting, ok := r.voting.get()
	if !ok {
		return 0, ErrNoVotingAuthority
	}
	if !caller.Equals(voting) {
		return 0, ErrNotAuthorized
	}

	if recipient.Equals(NullPrincipal) {
		return 0, ErrInvalidRecipient
	}

	if achievementsHash == "" || inductionHeight < currentHeight {
		return 0, ErrInvalidMetadata
	}

	id := r.nextTokenID
	if _, ok := r.tokens[id]; ok {
		return 0, ErrAlreadyMinted
	}

	r.tokens[id] = Token{
		Owner:            recipient,
		AchievementsHash: achievementsHash,
		InductionHeight:  inductionHeight,
		Active:           true,
	}
	r.indexToken(recipient, id)
	r.nextTokenID++

	return id, nil
}

func (r *Registry) indexToken(owner Principal, id uint64) {
	r.balances[owner]++

	ids := r.ownerIndex[owner]
	if len(ids) < membershipconst.MaxIndexedTokens {
		r.ownerIndex[owner] = append(ids, id)
	}
}

// UpdateReputation sets reputation score of the token. Checks are done in
// the following order: reputation authority is bound
// (ErrNoReputationAuthority), caller is the authority (ErrNotAuthorized), id
// has been allocated (ErrInvalidTokenID), token exists (ErrTokenNotFound).
func (r *Registry) UpdateReputation(caller Principal, id uint64, score int64) error {
	tok, err := r.curatedToken(caller, id)
	if err != nil {
		return err
	}

	tok.ReputationScore = score
	r.tokens[id] = tok

	return nil
}

// SetStatus sets active flag of the token. Checks are the same as for
// UpdateReputation.
func (r *Registry) SetStatus(caller Principal, id uint64, active bool) error {
	tok, err := r.curatedToken(caller, id)
	if err != nil {
		return err
	}

	tok.Active = active
	r.tokens[id] = tok

	return nil
}

// curatedToken returns the token which caller is going to modify as the
// reputation authority.
func (r *Registry) curatedToken(caller Principal, id uint64) (Token, error) {
	rep, ok := r.reputation.get()
	if !ok {
		return Token{}, ErrNoReputationAuthority
	}
	if !caller.Equals(rep) {
		return Token{}, ErrNotAuthorized
	}
	if id >= r.nextTokenID {
		return Token{}, ErrInvalidTokenID
	}

	tok, ok := r.tokens[id]
	if !ok {
		return Token{}, ErrTokenNotFound
	}

	return tok, nil
}

// Transfer always fails with ErrTransferDisallowed: membership tokens are
// bound to their owners forever.
func (r *Registry) Transfer(id uint64, sender, recipient Principal) error {
	return ErrTransferDisallowed
}

// LastTokenID returns ID of the most recently minted token or 0 if nothing
// has been minted yet.
func (r *Registry) LastTokenID() uint64 {
	return r.nextTokenID - 1
}

// MintLimit returns the upper bound of token IDs.
func (r *Registry) MintLimit() uint64 {
	return r.mintLimit
}

// TotalSupply returns the number of minted tokens.
func (r *Registry) TotalSupply() uint64 {
	return uint64(len(r.tokens))
}

// TokenURI returns URI of the token metadata.
func (r *Registry) TokenURI(id uint64) (string, bool) {
	tok, ok := r.tokens[id]
	if !ok {
		return "", false
	}
	return membershipconst.URIScheme + tok.AchievementsHash, true
}

// Owner returns owner of the token.
func (r *Registry) Owner(id uint64) (Principal, bool) {
	tok, ok := r.tokens[id]
	return tok.Owner, ok
}

// Metadata returns copy of the token record.
func (r *Registry) Metadata(id uint64) (Token, bool) {
	tok, ok := r.tokens[id]
	return tok, ok
}

// TokensByOwner returns indexed token IDs of the owner in mint order. Only
// the first membershipconst.MaxIndexedTokens tokens of an owner are indexed,
// use BalanceOf to get the number of all owned tokens.
func (r *Registry) TokensByOwner(owner Principal) []uint64 {
	return slices.Clone(r.ownerIndex[owner])
}

// IsMember checks whether the principal owns at least one indexed token.
func (r *Registry) IsMember(p Principal) bool {
	return len(r.ownerIndex[p]) > 0
}

// BalanceOf returns the number of tokens owned by the principal.
func (r *Registry) BalanceOf(owner Principal) uint64 {
	return r.balances[owner]
}

// Owners returns all principals owning at least one token in ascending
// order.
func (r *Registry) Owners() []Principal {
	res := make([]Principal, 0, len(r.balances))
	for p := range r.balances {
		res = append(res, p)
	}
	slices.SortFunc(res, func(a, b Principal) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})
	return res
}

// Tokens returns IDs of all minted tokens in ascending order.
func (r *Registry) Tokens() []uint64 {
	res := make([]uint64, 0, len(r.tokens))
	for id := range r.tokens {
		res = append(res, id)
	}
	slices.Sort(res)
	return res
}
