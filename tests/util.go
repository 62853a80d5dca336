package tests

import (
	"path"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/interop/storage"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/neotest/chain"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

const membershipPath = "../contracts/membership"

// newExecutor returns executor of the single-node chain whose committee signs
// and sends all transactions.
func newExecutor(t *testing.T) *neotest.Executor {
	bc, acc := chain.NewSingle(t)
	return neotest.NewExecutor(t, bc, acc, acc)
}

// compileMembership compiles the Membership contract sent by the committee of
// e.
func compileMembership(t *testing.T, e *neotest.Executor) *neotest.Contract {
	return neotest.CompileFile(t, e.CommitteeHash, membershipPath, path.Join(membershipPath, "config.yml"))
}

// iteratorToArray reads all remaining values of the iterator.
func iteratorToArray(iter *storage.Iterator) []stackitem.Item {
	var res []stackitem.Item
	for iter.Next() {
		res = append(res, iter.Value())
	}
	return res
}
