// Package project implements projects and their team membership rows.
//
// A project always keeps at least one active owner member. Member rows are
// unique per (project, user) among active rows, and every mutation writes a
// project audit entry.
//
// Layering:
// - domain: project/member entities, role ranking, errors
// - application: the project service using explicit ports
// - ports: stable boundaries for persistence and id/time generation
// - adapters: concrete HTTP, memory, and postgres implementations
// - transport: module-private DTOs for HTTP contracts
package project
