/*
Package membership contains implementation of the Membership contract: a
registry of soulbound (non-transferable) membership tokens compatible with
NEP-11 non-divisible token standard.

Tokens are minted by the voting authority and curated by the reputation
authority. Both authorities are contract or account addresses bound once by
the committee. After binding, an authority can never be changed or removed.
An operation is considered to be called by the authority if the authority's
witness is present, so an authority may be a contract calling Membership
directly or an account signing the transaction.

Token IDs are sequential integers starting from 1. NEP-11 methods accept them
encoded as little-endian byte arrays. Transfer of the tokens is always
rejected.

# Contract notifications

Transfer notification. This notification is produced when a token is minted.
From is always nil and amount is always 1.

	Transfer:
	  - name: from
	    type: Hash160
	  - name: to
	    type: Hash160
	  - name: amount
	    type: Integer
	  - name: tokenId
	    type: ByteArray

AuthorityBound notification. This notification is produced when the voting or
the reputation authority is bound.

	AuthorityBound:
	  - name: role
	    type: String
	  - name: authority
	    type: Hash160

ReputationUpdated notification. This notification is produced when the
reputation authority changes a score of the token.

	ReputationUpdated:
	  - name: tokenID
	    type: Integer
	  - name: score
	    type: Integer

StatusChanged notification. This notification is produced when the
reputation authority activates or deactivates the token.

	StatusChanged:
	  - name: tokenID
	    type: Integer
	  - name: active
	    type: Boolean
*/
package membership

/*
Contract storage model.

Current conventions:
 <id>: little-endian integer token ID
 <owner>: 20-byte account or contract address

# Summary
Key-value storage format:
 - 0x00 -> int
   next token ID, starts from 1
 - 0x01 -> int
   mint limit, tokens can't be minted when next token ID reaches it
 - 0x02 -> interop.Hash160
   voting authority, missing until bound
 - 0x03 -> interop.Hash160
   reputation authority, missing until bound
 - 0x10<id> -> std.Serialize(Token)
   token record
 - 0x11<owner> -> std.Serialize([]int)
   owner index: IDs of the first 10 tokens minted to the owner
 - 0x12<owner> -> int
   number of tokens owned by the owner
 - 0x13<owner><id> -> <id>
   set of all tokens owned by the owner
*/
