package common

import "github.com/nspcc-dev/neo-go/pkg/interop/native/std"

// Contract version components. Version must match VERSION file.
const (
	major = 0
	minor = 1
	patch = 0

	// The oldest version the contract can be updated from. Bump it together
	// with incompatible storage changes.
	prevMajor = 0
	prevMinor = 0
	prevPatch = 0

	Version     = major*1_000_000 + minor*1_000 + patch
	PrevVersion = prevMajor*1_000_000 + prevMinor*1_000 + prevPatch
)

// Update failure messages.
const (
	// ErrVersionMismatch is thrown by CheckVersion if the deployed contract is
	// older than PrevVersion.
	ErrVersionMismatch = "previous version mismatch"

	// ErrAlreadyUpdated is thrown by CheckVersion if the deployed contract
	// already has the current version.
	ErrAlreadyUpdated = "contract is already of the latest version"
)

// CheckVersion panics if the contract of version from can not be updated to
// the current Version.
func CheckVersion(from int) {
	if from < PrevVersion {
		panic(ErrVersionMismatch + ": expected >=" + std.Itoa(PrevVersion, 10))
	}
	if from == Version {
		panic(ErrAlreadyUpdated + ": " + std.Itoa(Version, 10))
	}
}

// AppendVersion appends current contract version to the update arguments, so
// _deploy can check it via CheckVersion.
func AppendVersion(data any) []any {
	if data == nil {
		return []any{Version}
	}
	return append(data.([]any), Version)
}
