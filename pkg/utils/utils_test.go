package utils

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSessionID_StableWithinHour(t *testing.T) {
	at := time.Date(2024, 1, 1, 10, 5, 0, 0, time.UTC)

	first := sessionIDAt("127.0.0.1curl/8.0", at)
	second := sessionIDAt("127.0.0.1curl/8.0", at.Add(30*time.Minute))
	nextHour := sessionIDAt("127.0.0.1curl/8.0", at.Add(time.Hour))

	assert.Len(t, first, 16)
	assert.Equal(t, first, second)
	assert.NotEqual(t, first, nextHour)
}

func TestMD5Hash(t *testing.T) {
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", MD5Hash("hello"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, logrus.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("verbose"))
}
