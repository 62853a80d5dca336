package membership

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// AuthorityBoundEventsFromApplicationLog retrieves a set of all emitted events
// with "AuthorityBound" name from the provided [result.ApplicationLog].
func AuthorityBoundEventsFromApplicationLog(log *result.ApplicationLog) ([]*AuthorityBoundEvent, error) {
	return eventsFromApplicationLog[AuthorityBoundEvent](log, "AuthorityBound")
}

// ReputationUpdatedEventsFromApplicationLog retrieves a set of all emitted
// events with "ReputationUpdated" name from the provided [result.ApplicationLog].
func ReputationUpdatedEventsFromApplicationLog(log *result.ApplicationLog) ([]*ReputationUpdatedEvent, error) {
	return eventsFromApplicationLog[ReputationUpdatedEvent](log, "ReputationUpdated")
}

// StatusChangedEventsFromApplicationLog retrieves a set of all emitted events
// with "StatusChanged" name from the provided [result.ApplicationLog].
func StatusChangedEventsFromApplicationLog(log *result.ApplicationLog) ([]*StatusChangedEvent, error) {
	return eventsFromApplicationLog[StatusChangedEvent](log, "StatusChanged")
}

type event[T any] interface {
	*T
	FromStackItem(*stackitem.Array) error
}

func eventsFromApplicationLog[T any, E event[T]](log *result.ApplicationLog, name string) ([]*T, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*T
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != name {
				continue
			}
			ev := new(T)
			err := E(ev).FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize %sEvent from stackitem (execution #%d, event #%d): %w", name, i, j, err)
			}
			res = append(res, ev)
		}
	}

	return res, nil
}

func eventFields(item *stackitem.Array, n int) ([]stackitem.Item, error) {
	if item == nil {
		return nil, errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return nil, errors.New("not an array")
	}
	if len(arr) != n {
		return nil, errors.New("wrong number of structure elements")
	}
	return arr, nil
}

// FromStackItem converts provided [stackitem.Array] to AuthorityBoundEvent or
// returns an error if it's not possible to do to so.
func (e *AuthorityBoundEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := eventFields(item, 2)
	if err != nil {
		return err
	}

	e.Role, err = itemToUTF8String(arr[0])
	if err != nil {
		return fmt.Errorf("field Role: %w", err)
	}

	b, err := arr[1].TryBytes()
	if err == nil {
		e.Authority, err = util.Uint160DecodeBytesBE(b)
	}
	if err != nil {
		return fmt.Errorf("field Authority: %w", err)
	}

	return nil
}

// FromStackItem converts provided [stackitem.Array] to ReputationUpdatedEvent
// or returns an error if it's not possible to do to so.
func (e *ReputationUpdatedEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := eventFields(item, 2)
	if err != nil {
		return err
	}

	e.TokenID, err = arr[0].TryInteger()
	if err != nil {
		return fmt.Errorf("field TokenID: %w", err)
	}

	e.Score, err = arr[1].TryInteger()
	if err != nil {
		return fmt.Errorf("field Score: %w", err)
	}

	return nil
}

// FromStackItem converts provided [stackitem.Array] to StatusChangedEvent or
// returns an error if it's not possible to do to so.
func (e *StatusChangedEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := eventFields(item, 2)
	if err != nil {
		return err
	}

	e.TokenID, err = arr[0].TryInteger()
	if err != nil {
		return fmt.Errorf("field TokenID: %w", err)
	}

	e.Active, err = arr[1].TryBool()
	if err != nil {
		return fmt.Errorf("field Active: %w", err)
	}

	return nil
}
