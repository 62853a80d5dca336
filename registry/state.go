package registry

import (
	"errors"
	"fmt"
	"maps"
)

// State is an authoritative part of the Registry state. Owner index and
// balances are derived from it.
type State struct {
	NextTokenID uint64
	MintLimit   uint64

	// Nil if not bound.
	VotingAuthority     *Principal
	ReputationAuthority *Principal

	Tokens map[uint64]Token
}

// State returns deep copy of the Registry state.
func (r *Registry) State() State {
	st := State{
		NextTokenID: r.nextTokenID,
		MintLimit:   r.mintLimit,
		Tokens:      maps.Clone(r.tokens),
	}

	if p, ok := r.voting.get(); ok {
		st.VotingAuthority = &p
	}
	if p, ok := r.reputation.get(); ok {
		st.ReputationAuthority = &p
	}

	return st
}

// Load restores Registry from the given state. Token IDs must be exactly
// 1..NextTokenID-1, owners must not be NullPrincipal and achievement hashes
// must not be empty. Owner index is rebuilt in token ID order, so it is
// equal to the one built by the original sequence of Mint calls.
func Load(st State) (*Registry, error) {
	if st.NextTokenID == 0 {
		return nil, errors.New("zero next token ID")
	}
	if st.MintLimit == 0 {
		return nil, errors.New("zero mint limit")
	}
	if uint64(len(st.Tokens)) != st.NextTokenID-1 {
		return nil, fmt.Errorf("number of tokens %d does not match next token ID %d", len(st.Tokens), st.NextTokenID)
	}

	r := New(st.MintLimit)
	r.nextTokenID = st.NextTokenID

	if st.VotingAuthority != nil {
		if err := r.BindVotingAuthority(*st.VotingAuthority); err != nil {
			return nil, fmt.Errorf("voting authority: %w", err)
		}
	}
	if st.ReputationAuthority != nil {
		if err := r.BindReputationAuthority(*st.ReputationAuthority); err != nil {
			return nil, fmt.Errorf("reputation authority: %w", err)
		}
	}

	for id := uint64(1); id < st.NextTokenID; id++ {
		tok, ok := st.Tokens[id]
		if !ok {
			return nil, fmt.Errorf("missing token %d", id)
		}
		if tok.Owner.Equals(NullPrincipal) {
			return nil, fmt.Errorf("token %d: %w", id, ErrInvalidRecipient)
		}
		if tok.AchievementsHash == "" {
			return nil, fmt.Errorf("token %d: %w", id, ErrInvalidMetadata)
		}

		r.tokens[id] = tok
		r.indexToken(tok.Owner, id)
	}

	return r, nil
}

