package logger

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

// Publisher ships error digests, typically a Kafka producer.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration // flush interval, default 30s
	CountThreshold int           // distinct entries that force a flush, default 100
	Topic          string        // topic the digest is published to
	Publisher      Publisher
}

// AggregatedLogEntry is one line of an error digest. Errors with the same
// level, caller, message and error text are folded into one entry; Fields
// are those of the first occurrence.
type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// ErrorDigest is the payload published on every flush.
type ErrorDigest struct {
	Host      string               `json:"host,omitempty"`
	Entries   []AggregatedLogEntry `json:"entries"`
	FlushedAt time.Time            `json:"flushed_at"`
}

type LogCollector struct {
	config  *CollectionConfig
	host    string
	entries map[string]*AggregatedLogEntry
	mu      sync.Mutex
	pubMu   sync.Mutex
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
	now     func() time.Time
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	if config.TimeInterval <= 0 {
		config.TimeInterval = 30 * time.Second
	}
	if config.CountThreshold <= 0 {
		config.CountThreshold = 100
	}
	host, _ := os.Hostname()

	c := &LogCollector{
		config:  config,
		host:    host,
		entries: make(map[string]*AggregatedLogEntry),
		stop:    make(chan struct{}),
		now:     time.Now,
	}

	c.wg.Add(1)
	go c.periodicFlush()

	return c
}

func (c *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := c.now()
	key := foldKey(level, message, fields, caller)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.Count++
		e.LastSeen = now
	} else {
		c.entries[key] = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
	var pending []AggregatedLogEntry
	if len(c.entries) >= c.config.CountThreshold {
		pending = c.drainLocked()
	}
	c.mu.Unlock()

	if pending != nil {
		c.publish(pending)
	}
}

func foldKey(level, message string, fields map[string]interface{}, caller string) string {
	errText := ""
	if v, ok := fields["error"]; ok && v != nil {
		errText = fmt.Sprint(v)
	}
	return level + "\x00" + caller + "\x00" + message + "\x00" + errText
}

func (c *LogCollector) periodicFlush() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.TimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Flush()
		case <-c.stop:
			c.Flush()
			return
		}
	}
}

// Flush publishes whatever has been collected so far.
func (c *LogCollector) Flush() {
	c.mu.Lock()
	pending := c.drainLocked()
	c.mu.Unlock()
	if pending != nil {
		c.publish(pending)
	}
}

func (c *LogCollector) drainLocked() []AggregatedLogEntry {
	if len(c.entries) == 0 {
		return nil
	}
	out := make([]AggregatedLogEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, *e)
	}
	c.entries = make(map[string]*AggregatedLogEntry)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FirstSeen.Equal(out[j].FirstSeen) {
			return out[i].Caller < out[j].Caller
		}
		return out[i].FirstSeen.Before(out[j].FirstSeen)
	})
	return out
}

func (c *LogCollector) publish(entries []AggregatedLogEntry) {
	if c.config.Publisher == nil {
		return
	}
	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	digest := ErrorDigest{Host: c.host, Entries: entries, FlushedAt: c.now().UTC()}
	if err := c.config.Publisher.PublishMessage(ctx, c.config.Topic, digest); err != nil {
		// the logger itself is the failing path, so report on stderr
		fmt.Fprintf(os.Stderr, "failed to publish error digest (%d entries): %v\n", len(entries), err)
	}
}

// Close stops the flush loop after a final flush. It is safe to call twice.
func (c *LogCollector) Close() {
	c.once.Do(func() { close(c.stop) })
	c.wg.Wait()
}
