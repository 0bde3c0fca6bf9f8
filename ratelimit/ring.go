/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import "time"

// timestampRing is a growable FIFO ring of timestamps ordered by insertion.
// It is not safe for concurrent use; Gate guards it with its mutex.
type timestampRing struct {
	buf   []time.Time
	head  int
	count int
}

func newTimestampRing(capacity int) timestampRing {
	if capacity < 1 {
		capacity = 1
	}
	return timestampRing{buf: make([]time.Time, capacity)}
}

func (r *timestampRing) Len() int {
	return r.count
}

func (r *timestampRing) push(t time.Time) {
	if r.count == len(r.buf) {
		r.grow()
	}
	r.buf[(r.head+r.count)%len(r.buf)] = t
	r.count++
}

func (r *timestampRing) popOldest() {
	if r.count == 0 {
		return
	}
	r.buf[r.head] = time.Time{}
	r.head = (r.head + 1) % len(r.buf)
	r.count--
}

func (r *timestampRing) oldest() time.Time {
	return r.buf[r.head]
}

func (r *timestampRing) newest() time.Time {
	return r.buf[(r.head+r.count-1)%len(r.buf)]
}

// span returns the distance between the newest and the oldest timestamps.
func (r *timestampRing) span() time.Duration {
	if r.count == 0 {
		return 0
	}
	return r.newest().Sub(r.oldest())
}

func (r *timestampRing) grow() {
	newSize := len(r.buf) * 2
	if newSize == 0 {
		newSize = 1
	}
	newBuf := make([]time.Time, newSize)
	for i := 0; i < r.count; i++ {
		newBuf[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	r.buf = newBuf
	r.head = 0
}
