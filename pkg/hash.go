package md5verify

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// HashFile calculates the MD5 digest of a file and returns it as lowercase hex.
// The file is read in HashChunkSize chunks until end of file.
func HashFile(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	return hashReader(filePath, file)
}

func hashReader(name string, r io.Reader) (string, error) {
	hasher := md5.New()
	buffer := make([]byte, HashChunkSize)

	for {
		n, err := r.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read from file %s: %w", name, err)
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashStringToHex returns the digest HashFile would produce for a file holding data.
func HashStringToHex(data string) string {
	sum := md5.Sum([]byte(data))
	return hex.EncodeToString(sum[:])
}

// IsValidDigest reports whether s is a 32 character lowercase hex digest.
func IsValidDigest(s string) bool {
	if len(s) != DigestHexSize {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
