/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertSamplesCountInHistogram asserts that the histogram (or a child of a HistogramVec) contains
// the specified number of samples.
func AssertSamplesCountInHistogram(t assert.TestingT, hist prometheus.Observer, wantSamplesCount int) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	m, ok := writeMetric(t, hist)
	if !ok {
		return false
	}
	if !assert.NotNil(t, m.GetHistogram(), "metric is not a histogram") {
		return false
	}
	return assert.Equal(t, wantSamplesCount, int(m.GetHistogram().GetSampleCount()))
}

// RequireSamplesCountInHistogram calls AssertSamplesCountInHistogram and fail test immediately in case of error.
func RequireSamplesCountInHistogram(t require.TestingT, hist prometheus.Observer, wantSamplesCount int) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if AssertSamplesCountInHistogram(t, hist, wantSamplesCount) {
		return
	}
	t.FailNow()
}

// AssertSamplesCountInCounter asserts that passed prometheus.Counter has proper value.
func AssertSamplesCountInCounter(t assert.TestingT, counter prometheus.Counter, wantCount int) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	m, ok := writeMetric(t, counter)
	if !ok {
		return false
	}
	if !assert.NotNil(t, m.GetCounter(), "metric is not a counter") {
		return false
	}
	return assert.Equal(t, wantCount, int(m.GetCounter().GetValue()))
}

// RequireSamplesCountInCounter calls AssertSamplesCountInCounter and fail test immediately in case of error.
func RequireSamplesCountInCounter(t require.TestingT, counter prometheus.Counter, wantCount int) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if AssertSamplesCountInCounter(t, counter, wantCount) {
		return
	}
	t.FailNow()
}

func writeMetric(t assert.TestingT, collected interface{}) (*dto.Metric, bool) {
	metric, ok := collected.(prometheus.Metric)
	if !assert.True(t, ok, "%T doesn't implement prometheus.Metric", collected) {
		return nil, false
	}
	var m dto.Metric
	if !assert.NoError(t, metric.Write(&m)) {
		return nil, false
	}
	return &m, true
}
