package overview

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/labtrack/labtrack/internal/lab"
	"github.com/labtrack/labtrack/internal/platform/websocket"
)

// EventSnapshot is the websocket event type carrying a department snapshot.
const EventSnapshot = "overview.snapshot"

// Publisher runs one live overview per department and pushes every
// recomputed snapshot onto the department's websocket topic. Clients that
// subscribe mid-stream catch up on the next store change.
type Publisher struct {
	feed    lab.Feed
	hub     websocket.EventPublisher
	timings *TimingStore
	log     zerolog.Logger

	mu        sync.Mutex
	overviews []*lab.Overview
}

func NewPublisher(feed lab.Feed, hub websocket.EventPublisher, timings *TimingStore, log zerolog.Logger) *Publisher {
	return &Publisher{
		feed:    feed,
		hub:     hub,
		timings: timings,
		log:     log,
	}
}

// Start subscribes a live overview for every configured department and
// hooks timing-table edits into the running overviews, so a threshold change
// re-publishes every department without a restart. On any error the
// already-started overviews are closed before returning.
func (p *Publisher) Start() error {
	for _, dept := range lab.Departments() {
		dept := dept
		o, err := lab.WatchOverview(p.feed, lab.OverviewConfig{
			Department: dept,
			Timings:    p.timings.Get(),
			OnSnapshot: func(snap lab.Snapshot) {
				p.publish(dept.Key, snap)
			},
		})
		if err != nil {
			p.Close()
			return fmt.Errorf("watch overview %s: %w", dept.Key, err)
		}
		p.mu.Lock()
		p.overviews = append(p.overviews, o)
		p.mu.Unlock()
	}
	p.timings.Watch(func(t lab.TimingTable) {
		p.mu.Lock()
		overviews := append([]*lab.Overview(nil), p.overviews...)
		p.mu.Unlock()
		for _, o := range overviews {
			o.SetTimings(t)
		}
	})
	p.log.Info().Int("departments", len(p.overviews)).Msg("overview publisher started")
	return nil
}

// Close cancels every department subscription. Safe to call repeatedly.
func (p *Publisher) Close() {
	p.mu.Lock()
	overviews := p.overviews
	p.overviews = nil
	p.mu.Unlock()

	for _, o := range overviews {
		o.Close()
	}
}

func (p *Publisher) publish(deptKey string, snap lab.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		p.log.Error().Err(err).Str("department", deptKey).Msg("marshal snapshot")
		return
	}
	event := websocket.Event{
		Type:       EventSnapshot,
		Topic:      websocket.OverviewTopic(deptKey),
		Department: deptKey,
		Timestamp:  time.Now().UTC(),
		Data:       data,
	}
	if err := p.hub.Publish(context.Background(), event); err != nil {
		p.log.Error().Err(err).Str("department", deptKey).Msg("publish snapshot")
	}
}
