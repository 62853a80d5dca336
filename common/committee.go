package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/neo"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
)

// CommitteeAddress returns multi address of the committee public keys with
// `M = N/2+1` threshold.
func CommitteeAddress() []byte {
	return committeeMultiaddress(neo.GetCommittee())
}

func committeeMultiaddress(keys []interop.PublicKey) []byte {
	return contract.CreateMultisigAccount(len(keys)/2+1, keys)
}

// HasUpdateAccess returns true if contract can be updated.
func HasUpdateAccess() bool {
	return runtime.CheckWitness(CommitteeAddress())
}
