package process

import "github.com/dogmatiq/configkit"

// SnapshotID returns the identifier under which the state of the workflow
// instance with the given identity is persisted.
//
// The identifier is derived deterministically from the identity so that an
// instance finds its own snapshot again after a restart.
func SnapshotID(id configkit.Identity) string {
	return id.Name + "-" + id.Key
}
