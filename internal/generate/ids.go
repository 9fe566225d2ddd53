// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var batchTopicRe = regexp.MustCompile(`[^a-z0-9]+`)

// NewBatchID builds a timestamped batch identifier, optionally carrying a
// slugged topic segment.
func NewBatchID(topic string) string {
	stamp := time.Now().UTC().Format("20060102-150405")
	topic = strings.Trim(batchTopicRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(topic)), "-"), "-")
	if topic != "" {
		return fmt.Sprintf("BATCH-%s-%s", topic, stamp)
	}
	return "BATCH-" + stamp
}

// NewContentID builds a unique article identifier: timestamp plus a short
// random suffix so IDs minted in the same second stay distinct.
func NewContentID() string {
	stamp := time.Now().UTC().Format("20060102-150405")
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is not survivable for anything else either.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return fmt.Sprintf("SOWADS-%s-%s", stamp, buf)
}
