// Package attendance implements work-time tracking: clock in/out pairs,
// manual entries, record management, and daily/period hour summaries.
//
// Raw hours are stored on each record; summaries clamp hours to the
// configured workday window and split records spanning midnight across
// days. Layering follows the other contexts.
package attendance
