package constants

const (
	Salt        = "dfss-ulak-bibliotheca"
	IDBytes     = 32 // SHA-256
	IDBits      = IDBytes * 8
	BucketCount = IDBits

	// DefaultBucketSize is K, the number of contacts a bucket holds.
	DefaultBucketSize = 8

	// Closest-peers queries issued by the node CLI and the HTTP API when the
	// caller gives no count.
	DefaultClosestCount = DefaultBucketSize
)
