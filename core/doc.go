// Package core defines the domain model for the aegis security pipeline.
//
// The core package provides:
//   - SecurityEvent and its severity/status enumerations
//   - Status lifecycle validation (guarded state machine)
//   - Principal, the authenticated actor consumed by the access guard
//   - Shared constants and the circuit breaker used by outbound calls
//
// Domain types carry no storage or transport concerns; those live in the
// storage and api packages respectively.
package core
