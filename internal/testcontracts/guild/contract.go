// Package guild contains a contract acting as the Membership authority and
// token holder in tests.
package guild

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

const receivedKey = "received"

// Call describes one received token.
type Call struct {
	From    interop.Hash160
	TokenID []byte
	Data    any
}

func OnNEP11Payment(from interop.Hash160, amount int, tokenID []byte, data any) {
	if amount != 1 {
		panic("wrong amount")
	}

	calls := Received()
	calls = append(calls, Call{
		From:    from,
		TokenID: tokenID,
		Data:    data,
	})
	storage.Put(storage.GetContext(), receivedKey, std.Serialize(calls))
}

// Received returns all tokens received by the contract.
func Received() []Call {
	val := storage.Get(storage.GetReadOnlyContext(), receivedKey)
	if val == nil {
		return []Call{}
	}
	return std.Deserialize(val.([]byte)).([]Call)
}

// Mint mints Membership token with the guild as a calling contract.
func Mint(membership interop.Hash160, recipient interop.Hash160, achievementsHash string, inductionHeight int) int {
	return contract.Call(membership, "mint", contract.All, recipient, achievementsHash, inductionHeight).(int)
}

// UpdateReputation changes reputation of the Membership token with the guild
// as a calling contract.
func UpdateReputation(membership interop.Hash160, id int, score int) bool {
	return contract.Call(membership, "updateReputation", contract.All, id, score).(bool)
}

func Verify() bool {
	return true
}
