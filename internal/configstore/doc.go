// Package configstore manages the monitoring-threshold configurations shown on
// the overview/configs page.
//
// The collection is held in memory and mirrored to a single slot of a
// [slot.Store]: every mutation rewrites the whole collection. At startup the
// slot is read back; when it is absent or unreadable, two built-in seed
// records are used instead.
//
// Update and delete calls that reference an unknown id are silent no-ops.
package configstore
