// Package repository defines the data access interfaces for autoadopt.
//
// The device inventory and the adoption history survive restarts through
// the Repository interface. The implementation lives in the sqlite
// subpackage.
//
// # SQLite Implementation
//
// The sqlite implementation uses the pure Go modernc.org/sqlite driver
// with WAL mode for file databases. It handles:
//
// - Bulk replacement of the device table after each discovery run
// - Single device upserts for selection and adoption outcomes
// - An append-only log of adoption attempts with their transcripts
//
// # Testing
//
// The sqlite repository is tested against in-memory databases.
package repository
