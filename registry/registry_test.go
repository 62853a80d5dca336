package registry_test

import (
	"testing"

	"github.com/nspcc-dev/membership-contract/contracts/membership/membershipconst"
	"github.com/nspcc-dev/membership-contract/registry"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/stretchr/testify/require"
)

var (
	voting    = util.Uint160{1}
	authority = util.Uint160{2}
	member    = util.Uint160{3}
	stranger  = util.Uint160{4}
)

// newBoundRegistry returns Registry with both authorities bound.
func newBoundRegistry(t *testing.T) *registry.Registry {
	r := registry.New(0)
	require.NoError(t, r.BindVotingAuthority(voting))
	require.NoError(t, r.BindReputationAuthority(authority))
	return r
}

func TestNew(t *testing.T) {
	r := registry.New(0)

	require.EqualValues(t, membershipconst.DefaultMintLimit, r.MintLimit())
	require.Zero(t, r.LastTokenID())
	require.Zero(t, r.TotalSupply())
	require.Empty(t, r.Tokens())

	_, ok := r.VotingAuthority()
	require.False(t, ok)
	_, ok = r.ReputationAuthority()
	require.False(t, ok)

	require.EqualValues(t, 5, registry.New(5).MintLimit())
}

func TestRegistry_BindVotingAuthority(t *testing.T) {
	r := registry.New(0)

	require.ErrorIs(t, r.BindVotingAuthority(registry.NullPrincipal), registry.ErrInvalidVotingAuthority)

	require.NoError(t, r.BindVotingAuthority(voting))
	p, ok := r.VotingAuthority()
	require.True(t, ok)
	require.Equal(t, voting, p)

	t.Run("second binding", func(t *testing.T) {
		require.ErrorIs(t, r.BindVotingAuthority(voting), registry.ErrVotingAuthorityBound)
		require.ErrorIs(t, r.BindVotingAuthority(stranger), registry.ErrVotingAuthorityBound)

		p, _ := r.VotingAuthority()
		require.Equal(t, voting, p)
	})

	t.Run("null principal after binding", func(t *testing.T) {
		require.ErrorIs(t, r.BindVotingAuthority(registry.NullPrincipal), registry.ErrInvalidVotingAuthority)
	})

	t.Run("independent of reputation authority", func(t *testing.T) {
		_, ok := r.ReputationAuthority()
		require.False(t, ok)
	})
}

func TestRegistry_BindReputationAuthority(t *testing.T) {
	r := registry.New(0)

	require.ErrorIs(t, r.BindReputationAuthority(registry.NullPrincipal), registry.ErrInvalidReputationAuthority)
	require.NoError(t, r.BindReputationAuthority(authority))
	require.ErrorIs(t, r.BindReputationAuthority(stranger), registry.ErrReputationAuthorityBound)
	require.ErrorIs(t, r.BindReputationAuthority(registry.NullPrincipal), registry.ErrInvalidReputationAuthority)

	p, ok := r.ReputationAuthority()
	require.True(t, ok)
	require.Equal(t, authority, p)

	_, ok = r.VotingAuthority()
	require.False(t, ok)
}

func TestRegistry_Mint(t *testing.T) {
	r := registry.New(0)
	require.NoError(t, r.BindVotingAuthority(voting))

	id, err := r.Mint(voting, member, "abc123", 100, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, id)

	tok, ok := r.Metadata(1)
	require.True(t, ok)
	require.Equal(t, registry.Token{
		Owner:            member,
		AchievementsHash: "abc123",
		InductionHeight:  100,
		ReputationScore:  0,
		Active:           true,
	}, tok)

	require.Equal(t, []uint64{1}, r.TokensByOwner(member))
	require.EqualValues(t, 1, r.LastTokenID())

	uri, ok := r.TokenURI(1)
	require.True(t, ok)
	require.Equal(t, "ipfs://abc123", uri)

	owner, ok := r.Owner(1)
	require.True(t, ok)
	require.Equal(t, member, owner)

	require.True(t, r.IsMember(member))
	require.False(t, r.IsMember(stranger))
	require.EqualValues(t, 1, r.BalanceOf(member))
	require.EqualValues(t, 1, r.TotalSupply())

	t.Run("sequential ids", func(t *testing.T) {
		for i := uint64(2); i <= 5; i++ {
			id, err := r.Mint(voting, stranger, "h", 100, 0)
			require.NoError(t, err)
			require.Equal(t, i, id)
		}
		require.Equal(t, []uint64{1, 2, 3, 4, 5}, r.Tokens())
	})

	t.Run("induction at current height", func(t *testing.T) {
		_, err := r.Mint(voting, member, "h", 10, 10)
		require.NoError(t, err)
	})
}

func TestRegistry_MintValidation(t *testing.T) {
	t.Run("no voting authority", func(t *testing.T) {
		r := registry.New(0)
		_, err := r.Mint(voting, member, "abc123", 100, 0)
		require.ErrorIs(t, err, registry.ErrNoVotingAuthority)
	})

	t.Run("unauthorized caller", func(t *testing.T) {
		r := newBoundRegistry(t)
		_, err := r.Mint(stranger, member, "abc123", 100, 0)
		require.ErrorIs(t, err, registry.ErrNotAuthorized)

		// reputation authority can't mint either
		_, err = r.Mint(authority, member, "abc123", 100, 0)
		require.ErrorIs(t, err, registry.ErrNotAuthorized)
	})

	t.Run("null recipient", func(t *testing.T) {
		r := newBoundRegistry(t)
		_, err := r.Mint(voting, registry.NullPrincipal, "abc123", 100, 0)
		require.ErrorIs(t, err, registry.ErrInvalidRecipient)
	})

	t.Run("invalid metadata", func(t *testing.T) {
		r := newBoundRegistry(t)

		_, err := r.Mint(voting, member, "", 100, 0)
		require.ErrorIs(t, err, registry.ErrInvalidMetadata)

		_, err = r.Mint(voting, member, "abc123", 99, 100)
		require.ErrorIs(t, err, registry.ErrInvalidMetadata)

		require.Zero(t, r.LastTokenID())
		require.Empty(t, r.TokensByOwner(member))
		_, ok := r.Metadata(1)
		require.False(t, ok)
	})

	t.Run("mint limit", func(t *testing.T) {
		r := registry.New(1)

		// limit is checked before the authority
		_, err := r.Mint(stranger, registry.NullPrincipal, "", 0, 100)
		require.ErrorIs(t, err, registry.ErrMintLimitReached)

		require.NoError(t, r.BindVotingAuthority(voting))
		_, err = r.Mint(voting, member, "abc123", 100, 0)
		require.ErrorIs(t, err, registry.ErrMintLimitReached)
		require.Zero(t, r.LastTokenID())
	})

	t.Run("limit exhaustion", func(t *testing.T) {
		r := registry.New(3)
		require.NoError(t, r.BindVotingAuthority(voting))

		for i := 0; i < 2; i++ {
			_, err := r.Mint(voting, member, "h", 0, 0)
			require.NoError(t, err)
		}

		_, err := r.Mint(voting, member, "h", 0, 0)
		require.ErrorIs(t, err, registry.ErrMintLimitReached)
		require.EqualValues(t, 2, r.LastTokenID())
	})

	t.Run("order", func(t *testing.T) {
		r := registry.New(0)
		require.NoError(t, r.BindVotingAuthority(voting))

		// caller check precedes recipient and metadata checks
		_, err := r.Mint(stranger, registry.NullPrincipal, "", 1, 2)
		require.ErrorIs(t, err, registry.ErrNotAuthorized)

		// recipient check precedes metadata check
		_, err = r.Mint(voting, registry.NullPrincipal, "", 1, 2)
		require.ErrorIs(t, err, registry.ErrInvalidRecipient)
	})
}

func TestRegistry_OwnerIndexBound(t *testing.T) {
	r := newBoundRegistry(t)

	var expected []uint64
	for i := 0; i < membershipconst.MaxIndexedTokens+5; i++ {
		id, err := r.Mint(voting, member, "h", 0, 0)
		require.NoError(t, err)
		if i < membershipconst.MaxIndexedTokens {
			expected = append(expected, id)
		}
	}

	require.Equal(t, []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, expected)
	require.Equal(t, expected, r.TokensByOwner(member))
	require.EqualValues(t, membershipconst.MaxIndexedTokens+5, r.BalanceOf(member))

	// ownership of non-indexed tokens is still recorded in the token itself
	owner, ok := r.Owner(15)
	require.True(t, ok)
	require.Equal(t, member, owner)

	t.Run("returned slice is a copy", func(t *testing.T) {
		ids := r.TokensByOwner(member)
		ids[0] = 100
		require.EqualValues(t, 1, r.TokensByOwner(member)[0])
	})
}

func TestRegistry_UpdateReputation(t *testing.T) {
	r := newBoundRegistry(t)
	_, err := r.Mint(voting, member, "abc123", 100, 0)
	require.NoError(t, err)

	before, _ := r.Metadata(1)

	require.NoError(t, r.UpdateReputation(authority, 1, 50))

	after, _ := r.Metadata(1)
	require.EqualValues(t, 50, after.ReputationScore)
	before.ReputationScore = 50
	require.Equal(t, before, after)

	t.Run("unauthorized", func(t *testing.T) {
		require.ErrorIs(t, r.UpdateReputation(stranger, 1, 70), registry.ErrNotAuthorized)
		require.ErrorIs(t, r.UpdateReputation(voting, 1, 70), registry.ErrNotAuthorized)

		tok, _ := r.Metadata(1)
		require.EqualValues(t, 50, tok.ReputationScore)
	})

	t.Run("unknown token", func(t *testing.T) {
		require.ErrorIs(t, r.UpdateReputation(authority, 2, 70), registry.ErrInvalidTokenID)
		require.ErrorIs(t, r.UpdateReputation(authority, 0, 70), registry.ErrTokenNotFound)
	})

	t.Run("negative score", func(t *testing.T) {
		require.NoError(t, r.UpdateReputation(authority, 1, -3))
		tok, _ := r.Metadata(1)
		require.EqualValues(t, -3, tok.ReputationScore)
	})
}

func TestRegistry_SetStatus(t *testing.T) {
	r := newBoundRegistry(t)
	_, err := r.Mint(voting, member, "abc123", 100, 0)
	require.NoError(t, err)

	require.NoError(t, r.SetStatus(authority, 1, false))

	tok, _ := r.Metadata(1)
	require.False(t, tok.Active)
	require.Zero(t, tok.ReputationScore)
	require.Equal(t, member, tok.Owner)

	require.ErrorIs(t, r.SetStatus(stranger, 1, true), registry.ErrNotAuthorized)
	require.ErrorIs(t, r.SetStatus(authority, 5, true), registry.ErrInvalidTokenID)

	tok, _ = r.Metadata(1)
	require.False(t, tok.Active)

	// inactive tokens keep membership
	require.True(t, r.IsMember(member))
}

func TestRegistry_CurationWithoutAuthority(t *testing.T) {
	r := registry.New(0)
	require.NoError(t, r.BindVotingAuthority(voting))
	_, err := r.Mint(voting, member, "abc123", 100, 0)
	require.NoError(t, err)

	// absent authority is reported before anything else
	require.ErrorIs(t, r.UpdateReputation(authority, 1, 50), registry.ErrNoReputationAuthority)
	require.ErrorIs(t, r.SetStatus(authority, 100, false), registry.ErrNoReputationAuthority)

	tok, _ := r.Metadata(1)
	require.Zero(t, tok.ReputationScore)
	require.True(t, tok.Active)
}

func TestRegistry_Transfer(t *testing.T) {
	r := newBoundRegistry(t)
	_, err := r.Mint(voting, member, "abc123", 100, 0)
	require.NoError(t, err)

	require.ErrorIs(t, r.Transfer(1, member, stranger), registry.ErrTransferDisallowed)
	require.ErrorIs(t, r.Transfer(42, registry.NullPrincipal, registry.NullPrincipal), registry.ErrTransferDisallowed)

	owner, _ := r.Owner(1)
	require.Equal(t, member, owner)
	require.Empty(t, r.TokensByOwner(stranger))
}

func TestRegistry_MissingToken(t *testing.T) {
	r := registry.New(0)

	_, ok := r.TokenURI(1)
	require.False(t, ok)
	_, ok = r.Owner(1)
	require.False(t, ok)
	_, ok = r.Metadata(1)
	require.False(t, ok)
	require.Empty(t, r.TokensByOwner(member))
	require.False(t, r.IsMember(member))
	require.Zero(t, r.BalanceOf(member))
}

func TestRegistry_Owners(t *testing.T) {
	r := newBoundRegistry(t)
	require.Empty(t, r.Owners())

	owners := []util.Uint160{{9}, stranger, {0, 1}, member, {7, 7}}
	for _, p := range owners {
		_, err := r.Mint(voting, p, "h", 0, 0)
		require.NoError(t, err)
	}
	_, err := r.Mint(voting, member, "h", 0, 0)
	require.NoError(t, err)

	exp := []util.Uint160{{0, 1}, member, stranger, {7, 7}, {9}}
	for i := 0; i < 5; i++ {
		require.Equal(t, exp, r.Owners())
	}
}
