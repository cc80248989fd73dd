// Package token implements the client-held swipe history token.
//
// A token carries a user's recent swipe counts between stateless requests.
// It is an anti-spam signal, not a security boundary: clients can forge it,
// and any token that fails to decode is treated as a brand-new user.
//
// Wire format (version 1): unpadded base64url of the JSON document
//
//	{"v":1,"t":<unix seconds>,"b":[[down,up],[down,up],...]}
//
// where "b" lists the buckets oldest first and the last bucket is the
// current time window.
package token

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"smg_backend/internal/feature/swipe/domain"
)

const (
	formatVersion = 1
	// maxTokenLength bounds the work spent on hostile input.
	maxTokenLength = 4096
	// maxBucketCount caps a single bucket counter read from a token.
	maxBucketCount = 1 << 20
)

// Bucket aggregates the swipes of one time window by direction.
type Bucket struct {
	Down int
	Up   int
}

// Total returns the number of swipes in the bucket.
func (b Bucket) Total() int {
	return b.Down + b.Up
}

// History is the decoded token: a fixed-size ring of buckets, oldest first.
type History struct {
	Timestamp int64 // unix seconds of the last advance; 0 for a fresh history
	Buckets   []Bucket
}

// Totals sums all buckets.
func (h History) Totals() Bucket {
	return h.Window(len(h.Buckets))
}

// Window sums the newest n buckets.
func (h History) Window(n int) Bucket {
	var sum Bucket
	if n > len(h.Buckets) {
		n = len(h.Buckets)
	}
	for _, b := range h.Buckets[len(h.Buckets)-n:] {
		sum.Down += b.Down
		sum.Up += b.Up
	}
	return sum
}

// Codec encodes, decodes and ages histories for a given bucket layout.
type Codec struct {
	bucketDuration time.Duration
	bucketCount    int
}

// NewCodec creates a codec. Durations under one second are raised to one
// second and counts under one are raised to one.
func NewCodec(bucketDuration time.Duration, bucketCount int) Codec {
	if bucketDuration < time.Second {
		bucketDuration = time.Second
	}
	if bucketCount < 1 {
		bucketCount = 1
	}
	return Codec{bucketDuration: bucketDuration, bucketCount: bucketCount}
}

// BucketCount returns the ring size.
func (c Codec) BucketCount() int {
	return c.bucketCount
}

// Empty returns a history with no swipes.
func (c Codec) Empty() History {
	return History{Buckets: make([]Bucket, c.bucketCount)}
}

type wire struct {
	V int     `json:"v"`
	T int64   `json:"t"`
	B [][]int `json:"b"`
}

// Encode serializes h deterministically.
func (c Codec) Encode(h History) string {
	h = c.normalize(h)
	w := wire{V: formatVersion, T: h.Timestamp, B: make([][]int, len(h.Buckets))}
	for i, b := range h.Buckets {
		w.B[i] = []int{b.Down, b.Up}
	}
	raw, err := json.Marshal(w)
	if err != nil {
		// wire only holds ints
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode parses a token. Empty, malformed or out-of-range input yields an
// empty history; Decode never fails.
func (c Codec) Decode(s string) History {
	if s == "" || len(s) > maxTokenLength {
		return c.Empty()
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return c.Empty()
	}
	var w wire
	if err := json.Unmarshal(raw, &w); err != nil {
		return c.Empty()
	}
	if w.V != formatVersion || w.T < 0 {
		return c.Empty()
	}

	h := History{Timestamp: w.T, Buckets: make([]Bucket, 0, len(w.B))}
	for _, pair := range w.B {
		if len(pair) != 2 || !validCount(pair[0]) || !validCount(pair[1]) {
			return c.Empty()
		}
		h.Buckets = append(h.Buckets, Bucket{Down: pair[0], Up: pair[1]})
	}
	return c.normalize(h)
}

// Advance ages h to now: every whole bucket duration elapsed since the
// history's timestamp shifts out the oldest bucket and appends an empty one.
// If at least a full ring of windows has elapsed the history is reset.
// The timestamp moves by whole windows only, so it always marks the start of
// the newest bucket; a fresh, reset or future-dated history starts at now.
func (c Codec) Advance(h History, now time.Time) History {
	h = c.normalize(h)
	nowSec := now.Unix()
	width := int64(c.bucketDuration / time.Second)

	if nowSec < h.Timestamp {
		h.Timestamp = nowSec
	}
	elapsed := (nowSec - h.Timestamp) / width
	if h.Timestamp == 0 || elapsed >= int64(c.bucketCount) {
		fresh := c.Empty()
		fresh.Timestamp = nowSec
		return fresh
	}

	buckets := make([]Bucket, 0, c.bucketCount)
	buckets = append(buckets, h.Buckets[elapsed:]...)
	for len(buckets) < c.bucketCount {
		buckets = append(buckets, Bucket{})
	}
	return History{Timestamp: h.Timestamp + elapsed*width, Buckets: buckets}
}

// Record counts one swipe in the current (newest) bucket.
func (c Codec) Record(h History, d domain.Direction) History {
	h = c.normalize(h)
	cur := &h.Buckets[len(h.Buckets)-1]
	if d == domain.Up {
		cur.Up++
	} else {
		cur.Down++
	}
	return h
}

// normalize returns a copy of h with exactly bucketCount buckets: extra old
// buckets are dropped, missing old buckets are padded empty.
func (c Codec) normalize(h History) History {
	out := History{Timestamp: h.Timestamp, Buckets: make([]Bucket, c.bucketCount)}
	src := h.Buckets
	if len(src) > c.bucketCount {
		src = src[len(src)-c.bucketCount:]
	}
	copy(out.Buckets[c.bucketCount-len(src):], src)
	return out
}

func validCount(n int) bool {
	return n >= 0 && n <= maxBucketCount
}
