package md5verify

// Manifest file constants
const (
	DefaultOutfile = "checksums.txt"
	TempManifest   = ".%s.tmp-%d-%d" // outfile, pid, sequence
)

// Digest constants
const (
	DigestSize    = 16             // MD5 digest size in bytes
	DigestHexSize = DigestSize * 2 // length of the hex encoded digest
	HashChunkSize = 32 * 1024      // read size used while hashing
)

// Manifest line markers
const (
	EscapeMarker   = '\\'
	TextModeMark   = ' '
	BinaryModeMark = '*'
)

// Entry set contexts
const (
	ExistingContext = "existing" // loaded from the manifest on disk
	NewContext      = "new"      // first seen during this run
)

// maxIovecs bounds a single writev call. Linux defines UIO_MAXIOV as 1024 and
// the same value is a safe floor elsewhere (golang/go#58623).
const maxIovecs = 1024
