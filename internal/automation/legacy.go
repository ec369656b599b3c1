package automation

import (
	"context"
	"fmt"
)

// entityBatch is the merged message for one entity.
type entityBatch struct {
	entity string
	msg    map[string]any
}

// batchByEntity merges legacy actions into one message per entity.
//
// Entities keep the order of their first action. Within an entity, a later
// action for the same attribute overwrites the earlier value.
//
// Example:
//
//	actions: [fan.speed=1, ac.power=true, fan.speed=3]
//	batches: [fan{speed:3}, ac{power:true}]
func batchByEntity(actions []LegacyAction) []entityBatch {
	var batches []entityBatch
	index := make(map[string]int)

	for _, a := range actions {
		i, ok := index[a.Entity]
		if !ok {
			i = len(batches)
			index[a.Entity] = i
			batches = append(batches, entityBatch{entity: a.Entity, msg: make(map[string]any)})
		}
		batches[i].msg[a.Attribute] = a.Value
	}
	return batches
}

// triggerActions publishes the legacy action list, one message per entity.
func (e *Engine) triggerActions(ctx context.Context, a *Automation) (int, error) {
	batches := batchByEntity(a.actions)
	for _, b := range batches {
		ent, ok := e.entities.Get(b.entity)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownEntity, b.entity)
		}
		if err := ent.Publish(ctx, b.msg); err != nil {
			return 0, err
		}
	}
	return len(batches), nil
}
