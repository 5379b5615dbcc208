package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// GenerateSessionID derives an anonymous session hash from a client
// fingerprint. The value rotates every hour.
func GenerateSessionID(input string) string {
	return sessionIDAt(input, time.Now())
}

func sessionIDAt(input string, at time.Time) string {
	hash := md5.Sum([]byte(input + fmt.Sprintf("%d", at.Unix()/3600)))
	return hex.EncodeToString(hash[:])[:16]
}

// MD5Hash generates MD5 hash of input string
func MD5Hash(input string) string {
	hash := md5.Sum([]byte(input))
	return hex.EncodeToString(hash[:])
}
