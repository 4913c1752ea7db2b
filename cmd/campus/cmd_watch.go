package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/campus-agents/campus-hub/config"
	"github.com/campus-agents/campus-hub/internal/domain/notification"
	"github.com/campus-agents/campus-hub/internal/infrastructure/messaging"
)

type watchOptions struct {
	replay int
	status bool
}

// newWatchCmd creates the "campus watch" subcommand.
func newWatchCmd() *cobra.Command {
	opts := watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream notifications published by a running campus through Redis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&opts.replay, "replay", 10, "print up to N recent notifications before streaming")
	cmd.Flags().BoolVar(&opts.status, "status", false, "print the latest agent status snapshot first")
	return cmd
}

func runWatch(ctx context.Context, cfg *config.Config, opts watchOptions, out io.Writer) error {
	log := newLogger(cfg, os.Stderr)
	defer func() { _ = log.Sync() }()

	rdb, err := newRedisClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer func() { _ = rdb.Close() }()

	pc := publisherConfig(cfg, log)
	enc := json.NewEncoder(out)

	if opts.status {
		// Publisher only reads the catch-up keys here.
		pub, err := messaging.NewRedisPublisher(rdb, pc)
		if err != nil {
			return err
		}
		statuses, ok, err := pub.LatestStatuses(ctx)
		if err != nil {
			return fmt.Errorf("read agent status: %w", err)
		}
		if ok {
			_ = enc.Encode(map[string]any{"agentStatus": statuses})
		}
	}

	return streamEnvelopes(ctx, messaging.NewRedisWatcher(rdb, pc), opts.replay, enc)
}

// envelopeSource is the part of RedisWatcher streamEnvelopes needs.
type envelopeSource interface {
	Replay(ctx context.Context, limit int, fn func(notification.Envelope)) error
	Watch(ctx context.Context, ready chan<- struct{}, fn func(notification.Envelope)) error
}

// seenLimit bounds the ids streamEnvelopes remembers for de-duplication.
const seenLimit = 1024

// seenIDs is a FIFO-bounded set of envelope ids.
type seenIDs struct {
	ids   map[string]struct{}
	order []string
	limit int
}

func newSeenIDs(limit int) *seenIDs {
	return &seenIDs{ids: make(map[string]struct{}, limit), limit: limit}
}

// add records id and reports whether it was new.
func (s *seenIDs) add(id string) bool {
	if _, dup := s.ids[id]; dup {
		return false
	}
	if len(s.order) >= s.limit {
		delete(s.ids, s.order[0])
		s.order = s.order[1:]
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// streamEnvelopes subscribes first, replays recent history, then prints live
// envelopes. Every envelope id is printed once: the replay overlaps the live
// stream, and a publisher retry can deliver the same envelope twice.
func streamEnvelopes(ctx context.Context, src envelopeSource, replay int, enc *json.Encoder) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	live := make(chan notification.Envelope, 256)
	ready := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		errCh <- src.Watch(ctx, ready, func(env notification.Envelope) {
			select {
			case live <- env:
			case <-ctx.Done():
			}
		})
	}()

	select {
	case <-ready:
	case err := <-errCh:
		return err
	}

	seen := newSeenIDs(seenLimit)
	if replay > 0 {
		err := src.Replay(ctx, replay, func(env notification.Envelope) {
			if seen.add(env.ID) {
				_ = enc.Encode(env)
			}
		})
		if err != nil {
			return fmt.Errorf("replay: %w", err)
		}
	}

	for {
		select {
		case env := <-live:
			if seen.add(env.ID) {
				_ = enc.Encode(env)
			}
		case err := <-errCh:
			return err
		}
	}
}
