/*
Package deploy provides deployment procedure of the Membership contract.

Deploy is idempotent: it may be repeated against the same network, already
done steps are detected and skipped.
*/
package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/nspcc-dev/membership-contract/contracts"
	"github.com/nspcc-dev/membership-contract/rpc/membership"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/management"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"go.uber.org/zap"
)

// Blockchain groups services provided by particular Neo blockchain network
// that are required for the Membership contract deployment.
type Blockchain interface {
	// RPCActor groups functions needed to compose and send transactions.
	actor.RPCActor

	// GetContractStateByHash returns network state of the smart contract by its
	// address. GetContractStateByHash returns error with 'Unknown contract'
	// substring if requested contract is missing.
	GetContractStateByHash(util.Uint160) (*state.Contract, error)
}

// Prm groups all parameters of the Membership contract deployment procedure.
type Prm struct {
	// Writes progress into the log.
	Logger *zap.Logger

	// Particular Neo blockchain instance to deploy the contract to.
	Blockchain Blockchain

	// Committee account used for transaction signing (must be unlocked).
	// Contract address depends on it.
	Account *wallet.Account

	// Compiled contract.
	Contract contracts.Contract

	// Upper bound of token IDs. Zero means the contract default.
	MintLimit uint64

	// Allows to update already deployed contract if it differs from the
	// provided one.
	Update bool

	// Authorities to bind. Zero value leaves the authority unbound.
	VotingAuthority     util.Uint160
	ReputationAuthority util.Uint160
}

// Deploy synchronizes the Membership contract with the network represented by
// Prm.Blockchain and binds configured authorities. It returns address of the
// contract.
//
// Stages:
//  1. contract deployment (or update if Prm.Update is set)
//  2. voting authority binding
//  3. reputation authority binding
//
// Already bound authority equal to the configured one is not an error, a
// different one is.
func Deploy(ctx context.Context, prm Prm) (util.Uint160, error) {
	if prm.Logger == nil {
		prm.Logger = zap.NewNop()
	}

	a, err := actor.NewSimple(prm.Blockchain, prm.Account)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("init transaction sender from committee account: %w", err)
	}

	return deploy(ctx, prm, deployEnv{
		sender:   a.Sender(),
		state:    prm.Blockchain,
		deployer: management.New(a),
		waiter:   a,
		contract: func(addr util.Uint160) contractAPI {
			return membership.New(a, addr)
		},
	})
}

// contractAPI groups methods of the Membership contract used by Deploy.
type contractAPI interface {
	updater
	VotingAuthority() (util.Uint160, bool, error)
	ReputationAuthority() (util.Uint160, bool, error)
	BindVotingAuthority(util.Uint160) (util.Uint256, uint32, error)
	BindReputationAuthority(util.Uint160) (util.Uint256, uint32, error)
}

// deployEnv groups services Deploy works with on behalf of the committee
// account.
type deployEnv struct {
	sender   util.Uint160
	state    stateGetter
	deployer deployer
	waiter   waiter
	contract func(util.Uint160) contractAPI
}

func deploy(ctx context.Context, prm Prm, env deployEnv) (util.Uint160, error) {
	addr := state.CreateContractHash(env.sender, prm.Contract.NEF.Checksum, prm.Contract.Manifest.Name)
	c := env.contract(addr)

	prm.Logger.Info("synchronizing Membership contract with the chain...", zap.Stringer("address", addr))

	err := syncContract(ctx, syncContractPrm{
		logger:    prm.Logger,
		state:     env.state,
		deployer:  env.deployer,
		updater:   c,
		waiter:    env.waiter,
		address:   addr,
		contract:  prm.Contract,
		mintLimit: prm.MintLimit,
		update:    prm.Update,
	})
	if err != nil {
		return addr, fmt.Errorf("sync contract: %w", err)
	}

	prm.Logger.Info("Membership contract successfully synchronized", zap.Stringer("address", addr))

	for _, auth := range []struct {
		role    string
		address util.Uint160
		get     func() (util.Uint160, bool, error)
		bind    func(util.Uint160) (util.Uint256, uint32, error)
	}{
		{"voting", prm.VotingAuthority, c.VotingAuthority, c.BindVotingAuthority},
		{"reputation", prm.ReputationAuthority, c.ReputationAuthority, c.BindReputationAuthority},
	} {
		if err := ctx.Err(); err != nil {
			return addr, err
		}

		err = bindAuthority(bindAuthorityPrm{
			logger:  prm.Logger,
			role:    auth.role,
			address: auth.address,
			get:     auth.get,
			bind:    auth.bind,
			waiter:  env.waiter,
		})
		if err != nil {
			return addr, fmt.Errorf("bind %s authority: %w", auth.role, err)
		}
	}

	return addr, nil
}

type stateGetter interface {
	GetContractStateByHash(util.Uint160) (*state.Contract, error)
}

type deployer interface {
	Deploy(exe *nef.File, manif *manifest.Manifest, data any) (util.Uint256, uint32, error)
}

type updater interface {
	Update(nef []byte, manifest string, data any) (util.Uint256, uint32, error)
}

type waiter interface {
	Wait(h util.Uint256, vub uint32, err error) (*state.AppExecResult, error)
}

type syncContractPrm struct {
	logger    *zap.Logger
	state     stateGetter
	deployer  deployer
	updater   updater
	waiter    waiter
	address   util.Uint160
	contract  contracts.Contract
	mintLimit uint64
	update    bool
}

func syncContract(ctx context.Context, prm syncContractPrm) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	onChain, err := prm.state.GetContractStateByHash(prm.address)
	if err != nil {
		if !isErrContractNotFound(err) {
			return fmt.Errorf("get contract state: %w", err)
		}

		var data any
		if prm.mintLimit > 0 {
			data = []any{new(big.Int).SetUint64(prm.mintLimit)}
		}

		prm.logger.Info("contract is missing on the chain, deploying...", zap.Uint64("mint limit", prm.mintLimit))

		err = await(prm.waiter)(prm.deployer.Deploy(&prm.contract.NEF, &prm.contract.Manifest, data))
		if err != nil {
			return fmt.Errorf("deploy contract: %w", err)
		}

		return nil
	}

	if onChain.NEF.Checksum == prm.contract.NEF.Checksum {
		prm.logger.Info("contract is already deployed and up to date", zap.Int32("id", onChain.ID))
		return nil
	}

	if !prm.update {
		prm.logger.Warn("on-chain contract differs from the provided one, update is disabled",
			zap.Uint32("on-chain checksum", onChain.NEF.Checksum),
			zap.Uint32("local checksum", prm.contract.NEF.Checksum))
		return nil
	}

	bNEF, err := prm.contract.NEF.Bytes()
	if err != nil {
		return fmt.Errorf("encode NEF: %w", err)
	}

	jManifest, err := json.Marshal(prm.contract.Manifest)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	prm.logger.Info("updating on-chain contract...", zap.Int32("id", onChain.ID))

	err = await(prm.waiter)(prm.updater.Update(bNEF, string(jManifest), nil))
	if err != nil {
		return fmt.Errorf("update contract: %w", membership.MapError(err))
	}

	return nil
}

type bindAuthorityPrm struct {
	logger  *zap.Logger
	role    string
	address util.Uint160
	get     func() (util.Uint160, bool, error)
	bind    func(util.Uint160) (util.Uint256, uint32, error)
	waiter  waiter
}

func bindAuthority(prm bindAuthorityPrm) error {
	if prm.address.Equals(util.Uint160{}) {
		prm.logger.Debug("authority is not configured, skip binding", zap.String("role", prm.role))
		return nil
	}

	bound, ok, err := prm.get()
	if err != nil {
		return fmt.Errorf("get current authority: %w", err)
	}

	if ok {
		if !bound.Equals(prm.address) {
			return fmt.Errorf("authority is already bound to %s", bound.StringLE())
		}
		prm.logger.Info("authority is already bound", zap.String("role", prm.role), zap.Stringer("address", bound))
		return nil
	}

	prm.logger.Info("binding authority...", zap.String("role", prm.role), zap.Stringer("address", prm.address))

	err = await(prm.waiter)(prm.bind(prm.address))
	if err != nil {
		return membership.MapError(err)
	}

	prm.logger.Info("authority successfully bound", zap.String("role", prm.role))

	return nil
}

// await returns function waiting for the transaction sent by one of the Actor
// methods and checking that it has been successfully executed.
func await(w waiter) func(util.Uint256, uint32, error) error {
	return func(h util.Uint256, vub uint32, err error) error {
		res, err := w.Wait(h, vub, err)
		if err != nil {
			return err
		}

		if !res.VMState.HasFlag(vmstate.Halt) {
			return fmt.Errorf("transaction %s failed: %w", h.StringLE(), errors.New(res.FaultException))
		}

		return nil
	}
}

func isErrContractNotFound(err error) bool {
	return strings.Contains(err.Error(), "Unknown contract")
}
