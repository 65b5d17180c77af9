// Package authorization implements the crewdeck permission matrix.
//
// Effective permissions for a user are the union of the permissions carried
// by their active role assignments and their direct user grants. Lookups are
// cache-first with a flat TTL and deny-by-default on failure.
//
// Layering:
// - domain: core entities, the policy engine, errors
// - application: commands/queries/workers using explicit ports
// - ports: stable boundaries for persistence/cache/events
// - adapters: concrete HTTP, memory, postgres, and event publisher implementations
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - Keep this module self-contained under the identity-access context.
// - Do not import other context adapters into domain/application.
package authorization
