// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package events

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// channelByKind is the static routing table: every event kind fans out on
// its own redis channel.
var channelByKind = map[Kind]string{
	KindRoomCreated:       "matchmaker.events.room-created",
	KindReadyCheckStarted: "matchmaker.events.ready-check-started",
	KindReadyStateUpdated: "matchmaker.events.ready-state-updated",
	KindRoomReady:         "matchmaker.events.room-ready",
	KindRoomNotReady:      "matchmaker.events.room-not-ready",
	KindPlayerDeclined:    "matchmaker.events.player-declined",
	KindQueueUpdated:      "matchmaker.events.queue-updated",
	KindPartyUpdated:      "matchmaker.events.party-updated",
}

// RedisPublisher fans events out over redis pub/sub, one channel per kind.
type RedisPublisher struct {
	client  *redis.Client
	log     *logrus.Entry
	timeout time.Duration

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		log:     logrus.WithField("component", "events"),
		timeout: 5 * time.Second,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (p *RedisPublisher) Publish(event Event) {
	channel, ok := channelByKind[event.Kind()]
	if !ok {
		p.log.WithField("kind", event.Kind()).Error("event kind has no route")
		return
	}

	envelope := Envelope{
		ID:        p.nextID(),
		Kind:      event.Kind(),
		Timestamp: time.Now(),
		Payload:   event,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		p.log.WithError(err).WithField("kind", event.Kind()).Error("failed to marshal event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		p.log.WithError(err).WithField("channel", channel).Warn("failed to publish event")
	}
}

func (p *RedisPublisher) nextID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), p.entropy).String()
}
