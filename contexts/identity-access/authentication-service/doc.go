// Package authentication implements user accounts and session tokens.
//
// Layering:
// - domain: user entity, invariants, errors
// - application: registration/login/session use-cases using explicit ports
// - ports: stable boundaries for persistence and id/time generation
// - adapters: concrete HTTP, memory, and postgres implementations
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - Keep this module self-contained under the identity-access context.
// - Password hashes never leave the module; DTOs carry no hash fields.
package authentication
