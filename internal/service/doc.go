// Package service implements the discovery and adoption workflows.
//
// DiscoveryService runs host probes over an address range and replaces the
// device inventory with the result. AdoptionService launches SSH adoption
// sessions for selected devices, streams their output into the inventory,
// and records each finished attempt.
//
// # Event System
//
// Both services publish events via EventBus for real-time updates to
// connected clients via Server-Sent Events (SSE). Session output reaches
// subscribers as batched adoption-progress events.
//
// # Inventory
//
// Inventory holds the device records of the last discovery run. Writes are
// serialized, and a record with an adoption in flight cannot be handed to a
// second adoption until the first completes.
package service
