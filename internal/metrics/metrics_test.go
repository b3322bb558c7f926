package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecorders(t *testing.T) {
	m := New()

	m.MessagePublished("text")
	m.MessagePublished("text")
	m.MessagePublished("voice")
	m.MessageRejected(ReasonInvalidDataURL)
	m.SetSubscribers(3)
	m.Delivered(5)
	m.Dropped(1)
	m.ObserveTranscribe(200*time.Millisecond, nil)
	m.ObserveTranscribe(time.Second, errors.New("boom"))

	require.Equal(t, 2.0, testutil.ToFloat64(m.published.WithLabelValues("text")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.published.WithLabelValues("voice")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues(ReasonInvalidDataURL)))
	require.Equal(t, 3.0, testutil.ToFloat64(m.subscribers))
	require.Equal(t, 5.0, testutil.ToFloat64(m.delivered))
	require.Equal(t, 1.0, testutil.ToFloat64(m.dropped))
	require.Equal(t, 2, testutil.CollectAndCount(m.transcribeDuration))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.MessagePublished("text")
		m.MessageRejected(ReasonRateLimited)
		m.SetSubscribers(1)
		m.Delivered(1)
		m.Dropped(1)
		m.ObserveTranscribe(time.Second, nil)
	})
}

func TestRegistryGathers(t *testing.T) {
	m := New()
	m.MessagePublished("text")

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["voxrelay_messages_published_total"])
	require.True(t, names["voxrelay_subscribers"])
}
