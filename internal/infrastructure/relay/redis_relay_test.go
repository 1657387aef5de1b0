package relay

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WikiFetch/internal/broadcast"
	"WikiFetch/internal/domain"
)

func TestRedisRelayPublishesEvents(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, DefaultChannel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	bus := broadcast.New(nil)
	relay := NewRedisRelay(client, "", nil)
	relay.Attach(bus)

	title, err := domain.NewTitle("en", "Cat")
	require.NoError(t, err)
	bus.Publish(ctx, broadcast.ArticleFetched(domain.NewFetchResult(title, domain.Article{
		Sections: []domain.Section{{Text: "Cats are..."}},
	})))

	select {
	case msg := <-sub.Channel():
		var evt broadcast.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &evt))
		assert.Equal(t, broadcast.ArticleFetchedEvent, evt.Name)
		assert.Equal(t, title, evt.Title)
		assert.Equal(t, "Cats are...", evt.Article.Text())
	case <-ctx.Done():
		t.Fatal("no relayed message")
	}
}

func TestRedisRelayFailureDoesNotPanic(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	bus := broadcast.New(nil)
	NewRedisRelay(client, "custom", nil).Attach(bus)

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), broadcast.ArticleFetched(domain.FetchResult{}))
	})

	var nilClient RedisRelay
	assert.Error(t, nilClient.Relay(context.Background(), broadcast.Event{}))
}
