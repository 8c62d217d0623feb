package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/totegamma/carelog"
)

// Channel carries every document accepted by the store.
const Channel = "carelog.documents"

type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, event carelog.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, Channel, jsonstr).Err()
	if err != nil {
		return err

	}

	return nil
}

// Realtime forwards events whose uri starts with one of the latest prefixes received on input.
// It returns when ctx is done or input is closed.
func (s *SignalService) Realtime(ctx context.Context, input <-chan []string, output chan<- carelog.Event) {
	pubsub := s.rdb.Subscribe(ctx, Channel)
	defer pubsub.Close()

	messages := pubsub.Channel()
	var prefixes []string

	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-input:
			if !ok {
				return
			}
			prefixes = p
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event carelog.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.WarnContext(
					ctx, "malformed event",
					slog.String("module", "signal"),
					slog.String("error", err.Error()),
				)
				continue
			}
			if !matchPrefix(event.URI, prefixes) {
				continue
			}
			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

func matchPrefix(uri string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(uri, p) {
			return true
		}
	}
	return false
}
