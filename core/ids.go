package core

import "github.com/google/uuid"

// newID generates a random instance identifier for a Pool or Scheduler when
// the caller doesn't supply one, replacing the teacher's plain
// caller-supplied string id (GoroutineThreadPool.id in the teacher's
// pool.go) with a generated default. Grounded on google/uuid's use for
// entity identifiers elsewhere in the retrieved pack (gcsfuse, PaulHobbs-ci).
func newID() string {
	return uuid.NewString()
}
