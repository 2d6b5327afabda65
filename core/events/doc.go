// Package events defines the ranking related events emitted on the event bus.
//
// Available event types:
//   - StateEvent: a ranking operation moved between states
//   - SuggestionDroppedEvent: validation rejected a returned suggestion
package events
