package membershipconst

const (
	// DefaultMintLimit is the ceiling of token IDs used when the contract is
	// deployed without an explicit limit.
	DefaultMintLimit = 1000

	// MaxIndexedTokens is the number of token IDs tracked per owner in the
	// owner index. IDs minted to an owner that already has this many indexed
	// tokens are not appended.
	MaxIndexedTokens = 10

	// URIScheme is prepended to the achievements hash to form a token URI.
	URIScheme = "ipfs://"

	// Symbol is the NEP-11 symbol of the membership token.
	Symbol = "MBR"
)

// Prefixes used for contract data storage.
const (
	// PrefixNextTokenID contains ID of the next token to be minted.
	PrefixNextTokenID byte = 0x00
	// PrefixMintLimit contains upper bound of token IDs.
	PrefixMintLimit byte = 0x01
	// PrefixVotingAuthority contains address allowed to mint tokens.
	PrefixVotingAuthority byte = 0x02
	// PrefixReputationAuthority contains address allowed to change
	// reputation and status of tokens.
	PrefixReputationAuthority byte = 0x03
	// PrefixToken contains map from token ID to serialized Token.
	PrefixToken byte = 0x10
	// PrefixOwnerIndex contains map from owner to the list of its first
	// indexed token IDs.
	PrefixOwnerIndex byte = 0x11
	// PrefixBalance contains map from owner to the number of owned tokens.
	PrefixBalance byte = 0x12
	// PrefixAccountToken contains map from (owner + token ID) to token ID.
	PrefixAccountToken byte = 0x13
)

// Error messages. Every message starts with the numeric code of its error
// kind so that the kind survives a FAULT exception.
const (
	NotAuthorizedError      = "100: caller is not authorized"
	InvalidMetadataError    = "101: invalid token metadata"
	AlreadyMintedError      = "102: token is already minted"
	TokenNotFoundError      = "103: token does not exist"
	TransferDisallowedError = "104: membership tokens are not transferable"
	InvalidTokenIDError     = "106: invalid token ID"
	InvalidRecipientError   = "107: invalid recipient"
	MintLimitReachedError   = "109: mint limit reached"

	InvalidVotingAuthorityError = "105: invalid voting authority"
	NoVotingAuthorityError      = "105: voting authority is not bound"
	VotingAuthorityBoundError   = "105: voting authority is already bound"

	InvalidReputationAuthorityError = "108: invalid reputation authority"
	NoReputationAuthorityError      = "108: reputation authority is not bound"
	ReputationAuthorityBoundError   = "108: reputation authority is already bound"
)
