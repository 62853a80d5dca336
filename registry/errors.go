package registry

import (
	"errors"

	"github.com/nspcc-dev/membership-contract/contracts/membership/membershipconst"
)

// Code is a numeric error kind. Codes are shared with the on-chain contract
// and its clients.
type Code uint16

// Error codes.
const (
	CodeNotAuthorized              Code = 100
	CodeInvalidMetadata            Code = 101
	CodeAlreadyMinted              Code = 102
	CodeTokenNotFound              Code = 103
	CodeTransferDisallowed         Code = 104
	CodeInvalidVotingAuthority     Code = 105
	CodeInvalidTokenID             Code = 106
	CodeInvalidRecipient           Code = 107
	CodeInvalidReputationAuthority Code = 108
	CodeMintLimitReached           Code = 109
)

// Error is a typed registry failure. Values are comparable, so sentinel
// errors below work with errors.Is.
type Error struct {
	code Code
	msg  string
}

// Error implements the error interface.
func (e Error) Error() string {
	return e.msg
}

// Code returns numeric kind of the error.
func (e Error) Code() Code {
	return e.code
}

// Registry errors.
var (
	ErrNotAuthorized      = Error{CodeNotAuthorized, membershipconst.NotAuthorizedError}
	ErrInvalidMetadata    = Error{CodeInvalidMetadata, membershipconst.InvalidMetadataError}
	ErrAlreadyMinted      = Error{CodeAlreadyMinted, membershipconst.AlreadyMintedError}
	ErrTokenNotFound      = Error{CodeTokenNotFound, membershipconst.TokenNotFoundError}
	ErrTransferDisallowed = Error{CodeTransferDisallowed, membershipconst.TransferDisallowedError}
	ErrInvalidTokenID     = Error{CodeInvalidTokenID, membershipconst.InvalidTokenIDError}
	ErrInvalidRecipient   = Error{CodeInvalidRecipient, membershipconst.InvalidRecipientError}
	ErrMintLimitReached   = Error{CodeMintLimitReached, membershipconst.MintLimitReachedError}

	// ErrInvalidVotingAuthority is returned on attempt to bind the null
	// principal as the voting authority.
	ErrInvalidVotingAuthority = Error{CodeInvalidVotingAuthority, membershipconst.InvalidVotingAuthorityError}
	// ErrNoVotingAuthority is returned by Mint before the voting authority
	// is bound.
	ErrNoVotingAuthority = Error{CodeInvalidVotingAuthority, membershipconst.NoVotingAuthorityError}
	// ErrVotingAuthorityBound is returned on the second binding attempt.
	ErrVotingAuthorityBound = Error{CodeInvalidVotingAuthority, membershipconst.VotingAuthorityBoundError}

	ErrInvalidReputationAuthority = Error{CodeInvalidReputationAuthority, membershipconst.InvalidReputationAuthorityError}
	ErrNoReputationAuthority      = Error{CodeInvalidReputationAuthority, membershipconst.NoReputationAuthorityError}
	ErrReputationAuthorityBound   = Error{CodeInvalidReputationAuthority, membershipconst.ReputationAuthorityBoundError}
)

// Errors returns all registry errors.
func Errors() []Error {
	return []Error{
		ErrNotAuthorized,
		ErrInvalidMetadata,
		ErrAlreadyMinted,
		ErrTokenNotFound,
		ErrTransferDisallowed,
		ErrInvalidTokenID,
		ErrInvalidRecipient,
		ErrMintLimitReached,
		ErrInvalidVotingAuthority,
		ErrNoVotingAuthority,
		ErrVotingAuthorityBound,
		ErrInvalidReputationAuthority,
		ErrNoReputationAuthority,
		ErrReputationAuthorityBound,
	}
}

// CodeOf returns the code of the first registry Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var e Error
	if errors.As(err, &e) {
		return e.code, true
	}
	return 0, false
}
