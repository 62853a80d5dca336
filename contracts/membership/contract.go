package membership

import (
	"github.com/nspcc-dev/membership-contract/common"
	"github.com/nspcc-dev/membership-contract/contracts/membership/membershipconst"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/convert"
	"github.com/nspcc-dev/neo-go/pkg/interop/iterator"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/ledger"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// Authority roles used in AuthorityBound notification.
const (
	roleVoting     = "voting"
	roleReputation = "reputation"
)

// Token is a membership token record.
type Token struct {
	Owner            interop.Hash160
	AchievementsHash string
	InductionHeight  int
	ReputationScore  int
	Active           bool
}

// nolint:deadcode,unused
func _deploy(data any, isUpdate bool) {
	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	limit := membershipconst.DefaultMintLimit
	if data != nil {
		args := data.([]any)
		if len(args) > 0 && args[0] != nil {
			limit = args[0].(int)
		}
	}
	if limit <= 0 {
		panic("invalid mint limit")
	}

	ctx := storage.GetContext()
	storage.Put(ctx, []byte{membershipconst.PrefixNextTokenID}, 1)
	storage.Put(ctx, []byte{membershipconst.PrefixMintLimit}, limit)

	runtime.Log("membership contract initialized")
}

// Update method updates contract source code and manifest. It can be invoked
// only by committee.
func Update(nef []byte, manifest string, data any) {
	if !common.HasUpdateAccess() {
		panic("only committee can update contract")
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, nef, manifest, common.AppendVersion(data))
	runtime.Log("membership contract updated")
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

// Symbol returns membership token symbol.
func Symbol() string {
	return membershipconst.Symbol
}

// Decimals returns membership token decimals. Tokens are non-divisible.
func Decimals() int {
	return 0
}

// TotalSupply returns the number of minted tokens. Tokens are never burnt,
// so it equals to LastTokenID.
func TotalSupply() int {
	return LastTokenID()
}

// BalanceOf returns the number of tokens owned by the specified owner,
// including tokens which are not in the owner index.
func BalanceOf(owner interop.Hash160) int {
	if !isValid(owner) {
		panic("invalid owner")
	}
	ctx := storage.GetReadOnlyContext()
	return common.GetInt(ctx, append([]byte{membershipconst.PrefixBalance}, owner...))
}

// OwnerOf returns the owner of the specified token.
func OwnerOf(tokenID []byte) interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	return getTokenWithKey(ctx, tokenID).Owner
}

// Properties returns properties of the specified token.
func Properties(tokenID []byte) map[string]any {
	ctx := storage.GetReadOnlyContext()
	tok := getTokenWithKey(ctx, tokenID)
	return map[string]any{
		"name":            "Membership #" + std.Itoa10(convert.ToInteger(tokenID)),
		"tokenURI":        membershipconst.URIScheme + tok.AchievementsHash,
		"inductionHeight": tok.InductionHeight,
		"reputation":      tok.ReputationScore,
		"active":          tok.Active,
	}
}

// Tokens returns iterator over IDs of all minted tokens.
func Tokens() iterator.Iterator {
	ctx := storage.GetReadOnlyContext()
	return storage.Find(ctx, []byte{membershipconst.PrefixToken}, storage.KeysOnly|storage.RemovePrefix)
}

// TokensOf returns iterator over IDs of all tokens owned by the specified
// owner.
func TokensOf(owner interop.Hash160) iterator.Iterator {
	if !isValid(owner) {
		panic("invalid owner")
	}
	ctx := storage.GetReadOnlyContext()
	return storage.Find(ctx, append([]byte{membershipconst.PrefixAccountToken}, owner...), storage.ValuesOnly)
}

// Transfer always fails: membership tokens are bound to their owners.
func Transfer(to interop.Hash160, tokenID []byte, data any) bool {
	panic(membershipconst.TransferDisallowedError)
}

// BindVotingAuthority sets address allowed to mint tokens. The address can
// be set only once. It can be invoked only by committee.
func BindVotingAuthority(authority interop.Hash160) bool {
	common.CheckCommitteeWitness()

	bindAuthority(membershipconst.PrefixVotingAuthority, roleVoting, authority,
		membershipconst.InvalidVotingAuthorityError, membershipconst.VotingAuthorityBoundError)

	return true
}

// BindReputationAuthority sets address allowed to change reputation and
// status of tokens. The address can be set only once. It can be invoked only
// by committee.
func BindReputationAuthority(authority interop.Hash160) bool {
	common.CheckCommitteeWitness()

	bindAuthority(membershipconst.PrefixReputationAuthority, roleReputation, authority,
		membershipconst.InvalidReputationAuthorityError, membershipconst.ReputationAuthorityBoundError)

	return true
}

func bindAuthority(prefix byte, role string, authority interop.Hash160, invalidMsg, boundMsg string) {
	if !isValid(authority) || isNull(authority) {
		panic(invalidMsg)
	}

	ctx := storage.GetContext()
	key := []byte{prefix}
	if storage.Get(ctx, key) != nil {
		panic(boundMsg)
	}

	storage.Put(ctx, key, authority)
	runtime.Notify("AuthorityBound", role, authority)
}

// VotingAuthority returns address allowed to mint tokens or nil if it is not
// bound yet.
func VotingAuthority() interop.Hash160 {
	return getAuthority(membershipconst.PrefixVotingAuthority)
}

// ReputationAuthority returns address allowed to change reputation and
// status of tokens or nil if it is not bound yet.
func ReputationAuthority() interop.Hash160 {
	return getAuthority(membershipconst.PrefixReputationAuthority)
}

func getAuthority(prefix byte) interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	val := storage.Get(ctx, []byte{prefix})
	if val == nil {
		return nil
	}
	return val.(interop.Hash160)
}

// Mint issues a new token to the recipient and returns its ID. It must be
// witnessed by the voting authority. Induction height must not be less than
// the current chain height.
func Mint(recipient interop.Hash160, achievementsHash string, inductionHeight int) int {
	ctx := storage.GetContext()

	id := common.GetInt(ctx, []byte{membershipconst.PrefixNextTokenID})
	if id >= common.GetInt(ctx, []byte{membershipconst.PrefixMintLimit}) {
		panic(membershipconst.MintLimitReachedError)
	}

	voting := storage.Get(ctx, []byte{membershipconst.PrefixVotingAuthority})
	if voting == nil {
		panic(membershipconst.NoVotingAuthorityError)
	}
	common.CheckAuthorityWitness(voting.(interop.Hash160), membershipconst.NotAuthorizedError)

	if !isValid(recipient) || isNull(recipient) {
		panic(membershipconst.InvalidRecipientError)
	}

	if len(achievementsHash) == 0 || inductionHeight < ledger.CurrentIndex() {
		panic(membershipconst.InvalidMetadataError)
	}

	tokenID := convert.ToBytes(id)
	tokenKey := append([]byte{membershipconst.PrefixToken}, tokenID...)
	if storage.Get(ctx, tokenKey) != nil {
		panic(membershipconst.AlreadyMintedError)
	}

	tok := Token{
		Owner:            recipient,
		AchievementsHash: achievementsHash,
		InductionHeight:  inductionHeight,
		ReputationScore:  0,
		Active:           true,
	}
	common.SetSerialized(ctx, tokenKey, tok)
	indexToken(ctx, recipient, id, tokenID)
	storage.Put(ctx, []byte{membershipconst.PrefixNextTokenID}, id+1)

	postTransfer(nil, recipient, tokenID, nil)

	return id
}

// indexToken records ownership of the new token.
func indexToken(ctx storage.Context, owner interop.Hash160, id int, tokenID []byte) {
	balanceKey := append([]byte{membershipconst.PrefixBalance}, owner...)
	storage.Put(ctx, balanceKey, common.GetInt(ctx, balanceKey)+1)

	accountKey := append([]byte{membershipconst.PrefixAccountToken}, owner...)
	storage.Put(ctx, append(accountKey, tokenID...), tokenID)

	indexKey := append([]byte{membershipconst.PrefixOwnerIndex}, owner...)
	ids := common.GetIntList(ctx, indexKey)
	if len(ids) < membershipconst.MaxIndexedTokens {
		ids = append(ids, id)
		common.SetSerialized(ctx, indexKey, ids)
	}
}

// postTransfer emits Transfer event and calls onNEP11Payment if needed.
func postTransfer(from, to interop.Hash160, tokenID []byte, data any) {
	runtime.Notify("Transfer", from, to, 1, tokenID)
	if management.GetContract(to) != nil {
		contract.Call(to, "onNEP11Payment", contract.All, from, 1, tokenID, data)
	}
}

// LastTokenID returns ID of the most recently minted token or 0 if nothing
// has been minted yet.
func LastTokenID() int {
	ctx := storage.GetReadOnlyContext()
	return common.GetInt(ctx, []byte{membershipconst.PrefixNextTokenID}) - 1
}

// MintLimit returns upper bound of token IDs.
func MintLimit() int {
	ctx := storage.GetReadOnlyContext()
	return common.GetInt(ctx, []byte{membershipconst.PrefixMintLimit})
}

// TokenURI returns URI of the token metadata or nil if token is missing.
func TokenURI(id int) any {
	ctx := storage.GetReadOnlyContext()
	tok := getToken(ctx, id)
	if tok == nil {
		return nil
	}
	return membershipconst.URIScheme + tok.(Token).AchievementsHash
}

// GetOwner returns owner of the token or nil if token is missing.
func GetOwner(id int) interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	tok := getToken(ctx, id)
	if tok == nil {
		return nil
	}
	return tok.(Token).Owner
}

// GetMetadata returns Token structure or nil if token is missing.
func GetMetadata(id int) any {
	ctx := storage.GetReadOnlyContext()
	return getToken(ctx, id)
}

// GetTokensByOwner returns IDs of the first tokens minted to the owner. At
// most membershipconst.MaxIndexedTokens IDs are returned.
func GetTokensByOwner(owner interop.Hash160) []int {
	ctx := storage.GetReadOnlyContext()
	return common.GetIntList(ctx, append([]byte{membershipconst.PrefixOwnerIndex}, owner...))
}

// IsMember checks whether the address has any indexed token.
func IsMember(owner interop.Hash160) bool {
	return len(GetTokensByOwner(owner)) > 0
}

// UpdateReputation sets reputation score of the token. It must be witnessed
// by the reputation authority.
func UpdateReputation(id int, score int) bool {
	ctx := storage.GetContext()

	tok := curatedToken(ctx, id)
	tok.ReputationScore = score
	common.SetSerialized(ctx, append([]byte{membershipconst.PrefixToken}, convert.ToBytes(id)...), tok)

	runtime.Notify("ReputationUpdated", id, score)

	return true
}

// SetStatus sets active flag of the token. It must be witnessed by the
// reputation authority.
func SetStatus(id int, active bool) bool {
	ctx := storage.GetContext()

	tok := curatedToken(ctx, id)
	tok.Active = active
	common.SetSerialized(ctx, append([]byte{membershipconst.PrefixToken}, convert.ToBytes(id)...), tok)

	runtime.Notify("StatusChanged", id, active)

	return true
}

// curatedToken returns the token which is going to be modified by the
// reputation authority.
func curatedToken(ctx storage.Context, id int) Token {
	rep := storage.Get(ctx, []byte{membershipconst.PrefixReputationAuthority})
	if rep == nil {
		panic(membershipconst.NoReputationAuthorityError)
	}
	common.CheckAuthorityWitness(rep.(interop.Hash160), membershipconst.NotAuthorizedError)

	if id >= common.GetInt(ctx, []byte{membershipconst.PrefixNextTokenID}) {
		panic(membershipconst.InvalidTokenIDError)
	}

	tok := getToken(ctx, id)
	if tok == nil {
		panic(membershipconst.TokenNotFoundError)
	}
	return tok.(Token)
}

// getToken returns Token or nil if it is missing.
func getToken(ctx storage.Context, id int) any {
	if id <= 0 {
		return nil
	}
	data := storage.Get(ctx, append([]byte{membershipconst.PrefixToken}, convert.ToBytes(id)...))
	if data == nil {
		return nil
	}
	return std.Deserialize(data.([]byte)).(Token)
}

// getTokenWithKey returns Token by NEP-11 token ID. It panics if the token
// is missing.
func getTokenWithKey(ctx storage.Context, tokenID []byte) Token {
	data := storage.Get(ctx, append([]byte{membershipconst.PrefixToken}, tokenID...))
	if data == nil {
		panic(membershipconst.TokenNotFoundError)
	}
	return std.Deserialize(data.([]byte)).(Token)
}

// isValid returns true if the provided address is a valid Uint160.
func isValid(address interop.Hash160) bool {
	return address != nil && len(address) == interop.Hash160Len
}

// isNull returns true if the provided address is the reserved zero address.
func isNull(address interop.Hash160) bool {
	for i := range address {
		if address[i] != 0 {
			return false
		}
	}
	return true
}
