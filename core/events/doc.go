// Package events defines the engine events emitted on the event bus.
//
// Available event types:
//   - FillEvent: a grade was auto-filled
//   - ClearEvent: a grade was cleared
//   - SubstitutionEvent: absences recorded, substitutes assigned or archived
//   - SwapEvent: cells moved or swapped
//   - BlockEvent: pool template saved, removed, deployed or dismantled
//   - PublishEvent: draft promoted to live or discarded
//   - FailureEvent: a durable write failed and was rolled back
package events
