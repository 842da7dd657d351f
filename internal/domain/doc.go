// Package domain defines the core types shared by discovery and adoption.
//
// # Devices
//
// Device is one live host found by a scan: its IPv4 address, hardware
// address, vendor, whether the SSH management port answered, whether the
// operator selected it, and its adoption Status with the accumulated session
// transcript. Status moves pending -> in_progress -> success | error and may
// be restarted from a terminal state.
//
// # Credentials
//
// Credentials hold the username and password used to log in to a device.
// Two sets exist, default and alternate, named by CredentialSet. The
// summary form never carries the password.
//
// # Adoption history
//
// AdoptionRun records one finished adoption attempt for persistence and
// the history API.
//
// # Design Principles
//
// - Value types with no infrastructure dependencies
// - Addresses sort numerically, not lexically
package domain
