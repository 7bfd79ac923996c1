package storage

import (
	"strings"

	"docvault/internal/platform/models"
)

// DeriveKey computes the physical object address for a logical file. It is
// pure and deterministic: the derived address is persisted once on the file
// record and must reproduce identically on every later call.
//
// Dedicated-bucket organizations get the whole bucket to themselves, so the
// key is the bare file name. Prefix-isolated organizations live in the shared
// default bucket under their unique prefix; prefix uniqueness is what makes
// the mapping injective across tenants.
func DeriveKey(org *models.Organization, defaultBucket, fileName, parentPath string) (bucket, key string) {
	if org.IsolationMode == models.IsolationBucket {
		bucket = org.StorageBucket
		if bucket == "" {
			bucket = defaultBucket + "-org-" + org.ID
		}
		return bucket, fileName
	}

	prefix := org.StoragePrefix
	if prefix == "" {
		prefix = "org-" + org.ID
	}

	cleanPath := normalizePath(parentPath)
	if cleanPath == "" {
		return defaultBucket, prefix + "/" + fileName
	}
	return defaultBucket, prefix + "/" + cleanPath + "/" + fileName
}

// normalizePath strips surrounding slashes and collapses the root path to
// empty.
func normalizePath(path string) string {
	if path == "" || path == "/" {
		return ""
	}
	return strings.Trim(path, "/")
}
