// Package models holds the data shapes shared by every component of the
// dispatcher: the routing core's snapshots and requests and the persisted
// config document. The typed error kinds live in the dispatcher and
// nodeclient packages, not here.
package models

// WorkDir is the per-user directory holding logs and the default config
// file, resolved relative to the user's home directory.
const WorkDir = ".qdispatch"
