// Package handler implements HTTP request handlers for the autoadopt API.
//
// # Handlers
//
// Handler serves the device inventory, discovery runs, adoption requests,
// adoption history, local network detection and the adoption settings.
//
// Middleware provides request logging, panic recovery, and CORS support.
//
// # Response Format
//
// Success responses return JSON data with appropriate status codes (200, 202).
// Error responses return JSON with {error, details} structure.
//
// # Server-Sent Events
//
// The /events endpoint is served by the hub package. Adoption output
// reaches it as batched adoption-progress events rather than through
// these handlers.
package handler
