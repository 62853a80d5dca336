package deploy

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/nspcc-dev/membership-contract/contracts"
	"github.com/nspcc-dev/membership-contract/contracts/membership/membershipconst"
	"github.com/nspcc-dev/membership-contract/registry"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testChain struct {
	contract *state.Contract
	err      error

	deployed []any
	updated  int
}

func (c *testChain) GetContractStateByHash(util.Uint160) (*state.Contract, error) {
	return c.contract, c.err
}

func (c *testChain) Deploy(_ *nef.File, _ *manifest.Manifest, data any) (util.Uint256, uint32, error) {
	c.deployed = append(c.deployed, data)
	return util.Uint256{1}, 10, nil
}

func (c *testChain) Update([]byte, string, any) (util.Uint256, uint32, error) {
	c.updated++
	return util.Uint256{2}, 10, nil
}

type testWaiter struct {
	fault string
}

func (w testWaiter) Wait(_ util.Uint256, _ uint32, err error) (*state.AppExecResult, error) {
	if err != nil {
		return nil, err
	}

	res := new(state.AppExecResult)
	res.VMState = vmstate.Halt
	if w.fault != "" {
		res.VMState = vmstate.Fault
		res.FaultException = w.fault
	}
	return res, nil
}

func testContract(t *testing.T, checksum uint32) contracts.Contract {
	f, err := nef.NewFile(make([]byte, 8))
	require.NoError(t, err)
	f.Checksum = checksum
	return contracts.Contract{NEF: *f, Manifest: *manifest.NewManifest("Membership")}
}

func newSyncPrm(t *testing.T, ch *testChain, w waiter) syncContractPrm {
	return syncContractPrm{
		logger:   zaptest.NewLogger(t),
		state:    ch,
		deployer: ch,
		updater:  ch,
		waiter:   w,
		contract: testContract(t, 1),
	}
}

func TestSyncContract(t *testing.T) {
	ctx := context.Background()

	t.Run("missing", func(t *testing.T) {
		ch := &testChain{err: errors.New("Unknown contract")}
		prm := newSyncPrm(t, ch, testWaiter{})
		prm.mintLimit = 5

		require.NoError(t, syncContract(ctx, prm))
		require.Equal(t, []any{[]any{big.NewInt(5)}}, ch.deployed)
		require.Zero(t, ch.updated)

		prm.mintLimit = 0
		require.NoError(t, syncContract(ctx, prm))
		require.Nil(t, ch.deployed[1])
	})

	t.Run("state failure", func(t *testing.T) {
		ch := &testChain{err: errors.New("connection refused")}
		require.Error(t, syncContract(ctx, newSyncPrm(t, ch, testWaiter{})))
		require.Empty(t, ch.deployed)
	})

	t.Run("deploy failure", func(t *testing.T) {
		ch := &testChain{err: errors.New("Unknown contract")}
		require.ErrorContains(t, syncContract(ctx, newSyncPrm(t, ch, testWaiter{fault: "invalid mint limit"})), "invalid mint limit")
	})

	t.Run("up to date", func(t *testing.T) {
		ch := &testChain{contract: &state.Contract{ContractBase: state.ContractBase{NEF: nef.File{Checksum: 1}}}}
		prm := newSyncPrm(t, ch, testWaiter{})
		prm.update = true

		require.NoError(t, syncContract(ctx, prm))
		require.Empty(t, ch.deployed)
		require.Zero(t, ch.updated)
	})

	t.Run("outdated", func(t *testing.T) {
		ch := &testChain{contract: &state.Contract{ContractBase: state.ContractBase{NEF: nef.File{Checksum: 2}}}}
		prm := newSyncPrm(t, ch, testWaiter{})

		require.NoError(t, syncContract(ctx, prm))
		require.Zero(t, ch.updated)

		prm.update = true
		require.NoError(t, syncContract(ctx, prm))
		require.Equal(t, 1, ch.updated)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()

		ch := &testChain{err: errors.New("Unknown contract")}
		require.ErrorIs(t, syncContract(ctx, newSyncPrm(t, ch, testWaiter{})), context.Canceled)
		require.Empty(t, ch.deployed)
	})
}

func TestBindAuthority(t *testing.T) {
	var (
		configured = util.Uint160{1, 2, 3}
		other      = util.Uint160{3, 2, 1}
	)

	newPrm := func(t *testing.T, bound *util.Uint160, binds *int, w waiter) bindAuthorityPrm {
		return bindAuthorityPrm{
			logger:  zaptest.NewLogger(t),
			role:    "voting",
			address: configured,
			get: func() (util.Uint160, bool, error) {
				if bound == nil {
					return util.Uint160{}, false, nil
				}
				return *bound, true, nil
			},
			bind: func(u util.Uint160) (util.Uint256, uint32, error) {
				require.Equal(t, configured, u)
				*binds++
				return util.Uint256{3}, 10, nil
			},
			waiter: w,
		}
	}

	t.Run("unbound", func(t *testing.T) {
		var binds int
		require.NoError(t, bindAuthority(newPrm(t, nil, &binds, testWaiter{})))
		require.Equal(t, 1, binds)
	})

	t.Run("not configured", func(t *testing.T) {
		var binds int
		prm := newPrm(t, nil, &binds, testWaiter{})
		prm.address = util.Uint160{}
		require.NoError(t, bindAuthority(prm))
		require.Zero(t, binds)
	})

	t.Run("bound to the same", func(t *testing.T) {
		var binds int
		require.NoError(t, bindAuthority(newPrm(t, &configured, &binds, testWaiter{})))
		require.Zero(t, binds)
	})

	t.Run("bound to other", func(t *testing.T) {
		var binds int
		require.Error(t, bindAuthority(newPrm(t, &other, &binds, testWaiter{})))
		require.Zero(t, binds)
	})

	t.Run("fault", func(t *testing.T) {
		var binds int
		err := bindAuthority(newPrm(t, nil, &binds, testWaiter{fault: membershipconst.VotingAuthorityBoundError}))
		require.ErrorIs(t, err, registry.ErrVotingAuthorityBound)
	})
}

type testContractAPI struct {
	testChain

	addr       util.Uint160
	voting     *util.Uint160
	reputation *util.Uint160

	onBind func()
}

func (c *testContractAPI) VotingAuthority() (util.Uint160, bool, error) {
	if c.voting == nil {
		return util.Uint160{}, false, nil
	}
	return *c.voting, true, nil
}

func (c *testContractAPI) ReputationAuthority() (util.Uint160, bool, error) {
	if c.reputation == nil {
		return util.Uint160{}, false, nil
	}
	return *c.reputation, true, nil
}

func (c *testContractAPI) BindVotingAuthority(u util.Uint160) (util.Uint256, uint32, error) {
	c.voting = &u
	if c.onBind != nil {
		c.onBind()
	}
	return util.Uint256{4}, 10, nil
}

func (c *testContractAPI) BindReputationAuthority(u util.Uint160) (util.Uint256, uint32, error) {
	c.reputation = &u
	if c.onBind != nil {
		c.onBind()
	}
	return util.Uint256{5}, 10, nil
}

func TestDeploy(t *testing.T) {
	var (
		sender     = util.Uint160{9, 9, 9}
		voting     = util.Uint160{1}
		reputation = util.Uint160{2}
	)

	newEnv := func(api *testContractAPI) deployEnv {
		api.err = errors.New("Unknown contract")
		return deployEnv{
			sender:   sender,
			state:    api,
			deployer: api,
			waiter:   testWaiter{},
			contract: func(addr util.Uint160) contractAPI {
				api.addr = addr
				return api
			},
		}
	}

	newPrm := func(t *testing.T) Prm {
		return Prm{
			Logger:              zaptest.NewLogger(t),
			Contract:            testContract(t, 7),
			MintLimit:           100,
			VotingAuthority:     voting,
			ReputationAuthority: reputation,
		}
	}

	t.Run("fresh", func(t *testing.T) {
		api := new(testContractAPI)
		prm := newPrm(t)

		addr, err := deploy(context.Background(), prm, newEnv(api))
		require.NoError(t, err)

		require.Equal(t, state.CreateContractHash(sender, 7, "Membership"), addr)
		require.Equal(t, addr, api.addr)
		require.Equal(t, []any{[]any{big.NewInt(100)}}, api.deployed)
		require.Equal(t, &voting, api.voting)
		require.Equal(t, &reputation, api.reputation)
	})

	t.Run("voting only", func(t *testing.T) {
		api := new(testContractAPI)
		prm := newPrm(t)
		prm.ReputationAuthority = util.Uint160{}

		_, err := deploy(context.Background(), prm, newEnv(api))
		require.NoError(t, err)
		require.Equal(t, &voting, api.voting)
		require.Nil(t, api.reputation)
	})

	t.Run("reputation bound to other", func(t *testing.T) {
		other := util.Uint160{3}
		api := &testContractAPI{reputation: &other}

		_, err := deploy(context.Background(), newPrm(t), newEnv(api))
		require.ErrorContains(t, err, "bind reputation authority")
		require.Equal(t, &voting, api.voting)
	})

	t.Run("canceled between bindings", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		api := &testContractAPI{onBind: cancel}

		addr, err := deploy(ctx, newPrm(t), newEnv(api))
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, api.addr, addr)
		require.Equal(t, &voting, api.voting)
		require.Nil(t, api.reputation)
	})
}
