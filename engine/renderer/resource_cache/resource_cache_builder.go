package resource_cache

// CacheOption is a functional option applied to a Cache during construction via New.
type CacheOption func(*Cache)

// WithUploadPolicy sets when cached entries are re-uploaded. The default is UploadAlways.
//
// Parameters:
//   - p: the upload policy
//
// Returns:
//   - CacheOption: a function that applies the policy to a cache
func WithUploadPolicy(p UploadPolicy) CacheOption {
	return func(c *Cache) {
		c.policy = p
	}
}
