package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"slices"
	"strconv"

	"github.com/nspcc-dev/membership-contract/chainstate"
	"github.com/nspcc-dev/membership-contract/contracts"
	"github.com/nspcc-dev/membership-contract/deploy"
	"github.com/nspcc-dev/membership-contract/registry"
	"github.com/nspcc-dev/membership-contract/rpc/membership"
	"github.com/nspcc-dev/membership-contract/tests/dump"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// dumpContractName is a name of the contract in the storage dumps.
const dumpContractName = "membership"

type env struct {
	cfg *config
	log *zap.Logger
	bc  *remoteBlockchain
}

func newEnv(ctx *cli.Context) (*env, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg.Logger.Level)
	if err != nil {
		return nil, err
	}

	bc, err := newRemoteBlockChain(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, log: log, bc: bc}, nil
}

func (e *env) close() {
	e.bc.close()
	_ = e.log.Sync()
}

func (e *env) reader() (*membership.ContractReader, error) {
	h, err := e.cfg.contractHash()
	if err != nil {
		return nil, err
	}
	return membership.NewReader(e.bc.inv, h), nil
}

func (e *env) writer() (*membership.Contract, *actor.Actor, error) {
	h, err := e.cfg.contractHash()
	if err != nil {
		return nil, nil, err
	}

	acc, err := openAccount(e.cfg)
	if err != nil {
		return nil, nil, err
	}

	act, err := e.bc.newActor(acc)
	if err != nil {
		return nil, nil, err
	}

	return membership.New(act, h), act, nil
}

// awaitHalt waits for the sent transaction to be persisted and checks that it
// succeeded. Contract exceptions are mapped to the registry errors.
func awaitHalt(act *actor.Actor) func(util.Uint256, uint32, error) (*state.AppExecResult, error) {
	return func(h util.Uint256, vub uint32, err error) (*state.AppExecResult, error) {
		res, err := act.Wait(h, vub, err)
		if err != nil {
			return nil, membership.MapError(err)
		}

		if !res.VMState.HasFlag(vmstate.Halt) {
			return nil, membership.MapError(fmt.Errorf("transaction %s failed: %s", h.StringLE(), res.FaultException))
		}

		return res, nil
	}
}

func deployCmd(ctx *cli.Context) error {
	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	dir := e.cfg.Contract.Dir
	if ctx.IsSet("dir") {
		dir = ctx.String("dir")
	}
	if dir == "" {
		return errors.New("missing contract directory")
	}

	ctr, err := contracts.Read(os.DirFS(dir), ".")
	if err != nil {
		return err
	}

	acc, err := openAccount(e.cfg)
	if err != nil {
		return err
	}

	voting, err := parseOptionalAddress(e.cfg.Contract.VotingAuthority)
	if err != nil {
		return fmt.Errorf("voting authority: %w", err)
	}

	reputation, err := parseOptionalAddress(e.cfg.Contract.ReputationAuthority)
	if err != nil {
		return fmt.Errorf("reputation authority: %w", err)
	}

	sigCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	h, err := deploy.Deploy(sigCtx, deploy.Prm{
		Logger:              e.log,
		Blockchain:          e.bc.rpc,
		Account:             acc,
		Contract:            ctr,
		MintLimit:           e.cfg.Contract.MintLimit,
		Update:              ctx.Bool("update"),
		VotingAuthority:     voting,
		ReputationAuthority: reputation,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.App.Writer, "%s (%s)\n", address.Uint160ToString(h), h.StringLE())
	return nil
}

func mintCmd(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 3 {
		return cli.NewExitError("expected recipient, achievements hash and induction height", 1)
	}

	recipient, err := parseAddress(args[0])
	if err != nil {
		return fmt.Errorf("recipient: %w", err)
	}

	height, err := strconv.ParseUint(args[2], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid induction height: %w", err)
	}

	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	c, act, err := e.writer()
	if err != nil {
		return err
	}

	res, err := awaitHalt(act)(c.Mint(recipient, args[1], new(big.Int).SetUint64(height)))
	if err != nil {
		return fmt.Errorf("mint: %w", err)
	}

	if len(res.Stack) != 1 {
		return fmt.Errorf("unexpected mint result stack length %d", len(res.Stack))
	}

	id, err := res.Stack[0].TryInteger()
	if err != nil {
		return fmt.Errorf("invalid minted token ID: %w", err)
	}

	e.log.Info("token minted", zap.Stringer("id", id), zap.String("recipient", address.Uint160ToString(recipient)),
		zap.Stringer("tx", res.Container))
	fmt.Fprintln(ctx.App.Writer, id)

	return nil
}

func updateReputationCmd(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 2 {
		return cli.NewExitError("expected token ID and score", 1)
	}

	id, err := parseTokenID(args[0])
	if err != nil {
		return err
	}

	score, ok := new(big.Int).SetString(args[1], 10)
	if !ok || !score.IsInt64() {
		return fmt.Errorf("invalid reputation score '%s'", args[1])
	}

	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	c, act, err := e.writer()
	if err != nil {
		return err
	}

	res, err := awaitHalt(act)(c.UpdateReputation(id, score))
	if err != nil {
		return fmt.Errorf("update reputation: %w", err)
	}

	e.log.Info("reputation updated", zap.Stringer("id", id), zap.Stringer("score", score), zap.Stringer("tx", res.Container))
	return nil
}

func setStatusCmd(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 2 {
		return cli.NewExitError("expected token ID and status", 1)
	}

	id, err := parseTokenID(args[0])
	if err != nil {
		return err
	}

	active, err := strconv.ParseBool(args[1])
	if err != nil {
		return fmt.Errorf("invalid status: %w", err)
	}

	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	c, act, err := e.writer()
	if err != nil {
		return err
	}

	res, err := awaitHalt(act)(c.SetStatus(id, active))
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}

	e.log.Info("status changed", zap.Stringer("id", id), zap.Bool("active", active), zap.Stringer("tx", res.Container))
	return nil
}

// tokenView is a YAML representation of the token.
type tokenView struct {
	ID               uint64 `yaml:"id"`
	Owner            string `yaml:"owner"`
	AchievementsHash string `yaml:"achievements_hash"`
	InductionHeight  uint32 `yaml:"induction_height"`
	ReputationScore  int64  `yaml:"reputation_score"`
	Active           bool   `yaml:"active"`
}

func newTokenView(id uint64, t registry.Token) tokenView {
	return tokenView{
		ID:               id,
		Owner:            address.Uint160ToString(t.Owner),
		AchievementsHash: t.AchievementsHash,
		InductionHeight:  t.InductionHeight,
		ReputationScore:  t.ReputationScore,
		Active:           t.Active,
	}
}

func tokenCmd(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("expected token ID", 1)
	}

	id, err := parseTokenID(ctx.Args().First())
	if err != nil {
		return err
	}

	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	r, err := e.reader()
	if err != nil {
		return err
	}

	res, err := r.GetMetadata(id)
	if err != nil {
		return fmt.Errorf("get token metadata: %w", membership.MapError(err))
	}
	if res == nil {
		return registry.ErrTokenNotFound
	}

	t, err := res.ToRegistry()
	if err != nil {
		return err
	}

	return yaml.NewEncoder(ctx.App.Writer).Encode(newTokenView(id.Uint64(), t))
}

func ownerCmd(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("expected account address", 1)
	}

	owner, err := parseAddress(ctx.Args().First())
	if err != nil {
		return err
	}

	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	r, err := e.reader()
	if err != nil {
		return err
	}

	member, err := r.IsMember(owner)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}

	balance, err := r.BalanceOf(owner)
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}

	ids, err := r.GetTokensByOwner(owner)
	if err != nil {
		return fmt.Errorf("get indexed tokens: %w", err)
	}

	view := struct {
		Address string   `yaml:"address"`
		Member  bool     `yaml:"member"`
		Balance string   `yaml:"balance"`
		Tokens  []uint64 `yaml:"tokens"`
	}{
		Address: address.Uint160ToString(owner),
		Member:  member,
		Balance: balance.String(),
	}
	for i := range ids {
		view.Tokens = append(view.Tokens, ids[i].Uint64())
	}

	return yaml.NewEncoder(ctx.App.Writer).Encode(view)
}

func dumpCmd(ctx *cli.Context) error {
	label := ctx.String("label")
	if label == "" {
		return cli.NewExitError("missing blockchain label", 1)
	}

	rootDir := ctx.String("dir")

	err := os.MkdirAll(rootDir, 0700)
	if err != nil {
		return fmt.Errorf("create root dir: %w", err)
	}

	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	h, err := e.cfg.contractHash()
	if err != nil {
		return err
	}

	ctr, err := e.bc.rpc.GetContractStateByHash(h)
	if err != nil {
		return fmt.Errorf("get contract state: %w", err)
	}

	d, err := dump.NewCreator(rootDir, dump.ID{
		Label: label,
		Block: e.bc.currentBlock,
	})
	if err != nil {
		return fmt.Errorf("init local dumper: %w", err)
	}
	defer d.Close()

	w, err := d.AddContract(dumpContractName, *ctr)
	if err != nil {
		return err
	}

	err = e.bc.iterateContractStorage(h, w.Write)
	if err != nil {
		return fmt.Errorf("iterate contract storage: %w", err)
	}

	err = d.Flush()
	if err != nil {
		return fmt.Errorf("flush dump: %w", err)
	}

	e.log.Info("contract successfully dumped", zap.String("dir", rootDir), zap.Uint32("block", e.bc.currentBlock), zap.Int("items", w.Count()))
	return nil
}

func verifyCmd(ctx *cli.Context) error {
	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	h, err := e.cfg.contractHash()
	if err != nil {
		return err
	}

	dec := chainstate.NewDecoder()

	err = e.bc.iterateContractStorage(h, dec.Add)
	if err != nil {
		return fmt.Errorf("decode contract storage: %w", err)
	}

	reg, err := dec.Registry()
	if err != nil {
		return fmt.Errorf("inconsistent contract storage: %w", err)
	}

	r, err := e.reader()
	if err != nil {
		return err
	}

	err = compareWithContract(reg, r)
	if err != nil {
		return err
	}

	e.log.Info("contract storage is consistent",
		zap.Uint64("tokens", reg.LastTokenID()), zap.Int("owners", len(reg.Owners())))
	return nil
}

// registryReader is a subset of membership.ContractReader used for the state
// comparison.
type registryReader interface {
	LastTokenID() (*big.Int, error)
	GetTokensByOwner(util.Uint160) ([]*big.Int, error)
	IsMember(util.Uint160) (bool, error)
}

// compareWithContract checks that the registry rebuilt from the storage
// matches the results of the contract methods.
func compareWithContract(reg *registry.Registry, r registryReader) error {
	last, err := r.LastTokenID()
	if err != nil {
		return fmt.Errorf("get last token ID: %w", err)
	}
	if !last.IsUint64() || last.Uint64() != reg.LastTokenID() {
		return fmt.Errorf("last token ID mismatch: storage %d, contract %s", reg.LastTokenID(), last)
	}

	for _, owner := range reg.Owners() {
		ids, err := r.GetTokensByOwner(owner)
		if err != nil {
			return fmt.Errorf("get tokens of %s: %w", address.Uint160ToString(owner), err)
		}

		got := make([]uint64, len(ids))
		for i := range ids {
			got[i] = ids[i].Uint64()
		}

		if exp := reg.TokensByOwner(owner); !slices.Equal(exp, got) {
			return fmt.Errorf("owner index mismatch for %s: storage %v, contract %v", address.Uint160ToString(owner), exp, got)
		}

		member, err := r.IsMember(owner)
		if err != nil {
			return fmt.Errorf("check membership of %s: %w", address.Uint160ToString(owner), err)
		}
		if member != reg.IsMember(owner) {
			return fmt.Errorf("membership mismatch for %s", address.Uint160ToString(owner))
		}
	}

	return nil
}

func parseTokenID(s string) (*big.Int, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid token ID: %w", err)
	}
	return new(big.Int).SetUint64(id), nil
}
