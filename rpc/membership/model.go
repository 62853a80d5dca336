package membership

import (
	"fmt"
	"math"
	"strings"

	"github.com/nspcc-dev/membership-contract/registry"
)

// MapError returns registry error matching FAULT exception of the failed
// contract invocation wrapped into err. The original error is kept in the
// chain, so both can be checked with errors.Is. Errors not produced by the
// contract are returned as is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	for _, e := range registry.Errors() {
		if strings.Contains(msg, e.Error()) {
			return fmt.Errorf("%w: %w", e, err)
		}
	}
	return err
}

// ToRegistry converts Token into the registry representation.
func (res *Token) ToRegistry() (registry.Token, error) {
	if !res.InductionHeight.IsUint64() || res.InductionHeight.Uint64() > math.MaxUint32 {
		return registry.Token{}, fmt.Errorf("induction height %s is out of range", res.InductionHeight)
	}
	if !res.ReputationScore.IsInt64() {
		return registry.Token{}, fmt.Errorf("reputation score %s is out of range", res.ReputationScore)
	}

	return registry.Token{
		Owner:            res.Owner,
		AchievementsHash: res.AchievementsHash,
		InductionHeight:  uint32(res.InductionHeight.Uint64()),
		ReputationScore:  res.ReputationScore.Int64(),
		Active:           res.Active,
	}, nil
}
