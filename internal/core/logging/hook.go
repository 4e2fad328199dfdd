package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook copies item_id and generation from an event's context.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if itemID := GetItemID(ctx); itemID != "" {
		e.Str("item_id", itemID)
	}

	if gen, ok := GetGeneration(ctx); ok {
		e.Uint64("generation", gen)
	}
}
