package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WikiFetch/internal/broadcast"
	"WikiFetch/internal/domain"
)

func TestSubscribeCountsBroadcasts(t *testing.T) {
	bus := broadcast.New(nil)
	sub := Subscribe(bus)

	title, err := domain.NewTitle("metrics-test.example.org", "Cat")
	require.NoError(t, err)

	before := testutil.ToFloat64(BroadcastTotal.WithLabelValues(title.Site))
	bus.Publish(context.Background(), broadcast.ArticleFetched(domain.NewFetchResult(title, domain.Article{})))
	sub.Unsubscribe()
	bus.Publish(context.Background(), broadcast.ArticleFetched(domain.NewFetchResult(title, domain.Article{})))

	assert.Equal(t, before+1, testutil.ToFloat64(BroadcastTotal.WithLabelValues(title.Site)))
}

func TestRecordFetch(t *testing.T) {
	before := testutil.ToFloat64(FetchTotal.WithLabelValues("transport", SourceNetwork))
	RecordFetch("transport", SourceNetwork, 0.25)
	assert.Equal(t, before+1, testutil.ToFloat64(FetchTotal.WithLabelValues("transport", SourceNetwork)))
}

func TestRecordStoreError(t *testing.T) {
	before := testutil.ToFloat64(StoreErrorsTotal.WithLabelValues(OpWrite))
	RecordStoreError(OpWrite)
	assert.Equal(t, before+1, testutil.ToFloat64(StoreErrorsTotal.WithLabelValues(OpWrite)))
}
