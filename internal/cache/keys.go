package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Key layout:
//
//	task:{id}                     one task, cached by identity
//	tasks:{owner}:ver             the owner's collection namespace version
//	tasks:{owner}:{ver}:{hash}    one filtered listing for the owner
//
// Collection keys embed a namespace version so that "invalidate every
// collection key for this owner" reduces to deleting the single version key:
// old entries become unreachable and age out by TTL. This keeps the cache
// contract to exactly get/set/delete, with no multi-key scans.

// collectionHashLength is the number of hex characters of the SHA-256 digest
// kept in a collection key. 16 characters (64 bits) is plenty for the number
// of distinct filters a single owner can plausibly have live at once.
const collectionHashLength = 16

// TaskKey returns the identity cache key for a single task.
func TaskKey(id uuid.UUID) string {
	return "task:" + id.String()
}

// OwnerVersionKey returns the key under which the owner's collection
// namespace version is stored.
func OwnerVersionKey(ownerID uuid.UUID) string {
	return "tasks:" + ownerID.String() + ":ver"
}

// NewVersion returns a fresh random namespace version. Regenerating the
// version orphans every collection key derived from the previous one.
func NewVersion() string {
	return uuid.NewString()
}

// CollectionKey derives the cache key for a filtered listing of the owner's
// tasks. The key is a stable function of (owner, version, params): params
// are encoded canonically (sorted by name) before hashing, so two filters
// that differ only in parameter order produce the same key. Callers are
// responsible for normalizing values themselves (see EncodeTimeParam), or
// equivalent filters spelled differently will fragment the cache.
func CollectionKey(ownerID uuid.UUID, version string, params map[string]string) string {
	sum := sha256.Sum256([]byte(canonicalParams(params)))
	hash := hex.EncodeToString(sum[:])[:collectionHashLength]
	return "tasks:" + ownerID.String() + ":" + version + ":" + hash
}

// EncodeTimeParam formats a timestamp as a canonical filter parameter value:
// RFC 3339 in UTC. Distinct spellings of the same instant (zone offsets,
// lowercase markers) collapse to one representation.
func EncodeTimeParam(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// canonicalParams encodes params as "k=v" pairs sorted by key and joined
// with "&". The empty map encodes to the empty string, so an unfiltered
// listing still gets a deterministic key.
func canonicalParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for i, name := range names {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(params[name])
	}
	return sb.String()
}
