package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
)

var (
	// ErrCommitteeWitnessFailed appears when the method must be called
	// by the committee but was not.
	ErrCommitteeWitnessFailed = "committee witness check failed"
)

// CheckCommitteeWitness checks witness of the committee multi address.
// It panics with ErrCommitteeWitnessFailed message on fail.
func CheckCommitteeWitness() {
	checkWitnessWithPanic(CommitteeAddress(), ErrCommitteeWitnessFailed)
}

// CheckAuthorityWitness checks witness of the bound authority. The authority
// may be either an account signing the transaction or a contract calling the
// current one. It panics with panicMsg on fail.
func CheckAuthorityWitness(authority interop.Hash160, panicMsg string) {
	checkWitnessWithPanic(authority, panicMsg)
}

func checkWitnessWithPanic(caller []byte, panicMsg string) {
	if !runtime.CheckWitness(caller) {
		panic(panicMsg)
	}
}
