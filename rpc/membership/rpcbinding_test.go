package membership

import (
	"errors"
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/nspcc-dev/membership-contract/contracts/membership/membershipconst"
	"github.com/nspcc-dev/membership-contract/registry"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

type testInv struct {
	err error
	res *result.Invoke
}

func (t *testInv) Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error) {
	return t.res, t.err
}

func (t *testInv) CallAndExpandIterator(contract util.Uint160, operation string, i int, params ...any) (*result.Invoke, error) {
	return t.res, t.err
}
func (t *testInv) TraverseIterator(uuid.UUID, *result.Iterator, int) ([]stackitem.Item, error) {
	return nil, nil
}
func (t *testInv) TerminateSession(uuid.UUID) error {
	return nil
}

func halt(items ...stackitem.Item) *result.Invoke {
	return &result.Invoke{State: "HALT", Stack: items}
}

func tokenItem(owner util.Uint160) stackitem.Item {
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteArray(owner.BytesBE()),
		stackitem.NewByteArray([]byte("abc123")),
		stackitem.Make(42),
		stackitem.Make(-7),
		stackitem.NewBool(true),
	})
}

func TestOptionalResults(t *testing.T) {
	ti := new(testInv)
	r := NewReader(ti, util.Uint160{1, 2, 3})
	owner := util.Uint160{4, 5, 6}

	ti.err = errors.New("bad")
	_, _, err := r.VotingAuthority()
	require.Error(t, err)
	_, err = r.GetMetadata(big.NewInt(1))
	require.Error(t, err)

	ti.err = nil
	ti.res = halt(stackitem.Null{})

	_, ok, err := r.VotingAuthority()
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = r.GetOwner(big.NewInt(1))
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = r.TokenURI(big.NewInt(1))
	require.NoError(t, err)
	require.False(t, ok)

	tok, err := r.GetMetadata(big.NewInt(1))
	require.NoError(t, err)
	require.Nil(t, tok)

	ti.res = halt(stackitem.NewByteArray(owner.BytesBE()))
	h, ok, err := r.ReputationAuthority()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, owner, h)

	ti.res = halt(stackitem.NewByteArray([]byte{1, 2, 3}))
	_, _, err = r.GetOwner(big.NewInt(1))
	require.Error(t, err)

	ti.res = halt(stackitem.NewBuffer([]byte(membershipconst.URIScheme + "abc123")))
	uri, ok, err := r.TokenURI(big.NewInt(1))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ipfs://abc123", uri)
}

func TestGetMetadata(t *testing.T) {
	ti := new(testInv)
	r := NewReader(ti, util.Uint160{1, 2, 3})
	owner := util.Uint160{4, 5, 6}

	ti.res = halt(tokenItem(owner))
	tok, err := r.GetMetadata(big.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, owner, tok.Owner)
	require.Equal(t, "abc123", tok.AchievementsHash)
	require.EqualValues(t, 42, tok.InductionHeight.Int64())
	require.EqualValues(t, -7, tok.ReputationScore.Int64())
	require.True(t, tok.Active)

	rt, err := tok.ToRegistry()
	require.NoError(t, err)
	require.Equal(t, registry.Token{
		Owner:            owner,
		AchievementsHash: "abc123",
		InductionHeight:  42,
		ReputationScore:  -7,
		Active:           true,
	}, rt)

	tok.InductionHeight = big.NewInt(-1)
	_, err = tok.ToRegistry()
	require.Error(t, err)

	ti.res = halt(stackitem.NewStruct([]stackitem.Item{stackitem.Make(1)}))
	_, err = r.GetMetadata(big.NewInt(1))
	require.Error(t, err)
}

func TestMapError(t *testing.T) {
	require.NoError(t, MapError(nil))

	other := errors.New("connection refused")
	require.Equal(t, other, MapError(other))

	for _, e := range registry.Errors() {
		fault := errors.New(`script failed (FAULT state) due to an error: at instruction 12 (THROW): unhandled exception: "` + e.Error() + `"`)
		err := MapError(fault)
		require.ErrorIs(t, err, e)
		require.ErrorIs(t, err, fault)

		code, ok := registry.CodeOf(err)
		require.True(t, ok)
		require.Equal(t, e.Code(), code)
	}
}

func TestReaderFault(t *testing.T) {
	ti := new(testInv)
	r := NewReader(ti, util.Uint160{1, 2, 3})

	ti.res = &result.Invoke{State: "FAULT", FaultException: membershipconst.NotAuthorizedError}
	_, err := r.LastTokenID()
	require.ErrorIs(t, MapError(err), registry.ErrNotAuthorized)
}

func TestEvents(t *testing.T) {
	authority := util.Uint160{7}
	log := &result.ApplicationLog{
		Executions: []state.Execution{{
			Events: []state.NotificationEvent{
				{Name: "AuthorityBound", Item: stackitem.NewArray([]stackitem.Item{
					stackitem.Make("voting"), stackitem.NewByteArray(authority.BytesBE()),
				})},
				{Name: "ReputationUpdated", Item: stackitem.NewArray([]stackitem.Item{
					stackitem.Make(1), stackitem.Make(99),
				})},
				{Name: "StatusChanged", Item: stackitem.NewArray([]stackitem.Item{
					stackitem.Make(1), stackitem.NewBool(false),
				})},
			},
		}},
	}

	bound, err := AuthorityBoundEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Equal(t, []*AuthorityBoundEvent{{Role: "voting", Authority: authority}}, bound)

	rep, err := ReputationUpdatedEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Len(t, rep, 1)
	require.EqualValues(t, 99, rep[0].Score.Int64())

	st, err := StatusChangedEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Len(t, st, 1)
	require.False(t, st[0].Active)

	_, err = StatusChangedEventsFromApplicationLog(nil)
	require.Error(t, err)

	log.Executions[0].Events[2].Item = stackitem.NewArray(nil)
	_, err = StatusChangedEventsFromApplicationLog(log)
	require.Error(t, err)
}
