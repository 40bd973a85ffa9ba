package recorder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/splitkit/splitkit/internal/experiment"
	"github.com/splitkit/splitkit/internal/storage"
)

const (
	defaultQueueSize   = 256
	defaultMaxAttempts = 3
	defaultTimeout     = 5 * time.Second
	defaultBackoff     = 500 * time.Millisecond
)

// SinkOptions tunes the delivery worker. Zero values take the defaults
// above.
type SinkOptions struct {
	QueueSize   int
	MaxAttempts int
	Timeout     time.Duration
	Backoff     time.Duration
}

// HTTPSink posts events to the collector from a single background worker.
// The queue is bounded; when it is full, events are dropped rather than
// blocking the caller. Delivery retries a bounded number of times with
// linear backoff, then gives up.
type HTTPSink struct {
	url    string
	client *http.Client
	store  storage.Store
	log    *zap.Logger
	opts   SinkOptions

	queue chan experiment.Result
	wg    sync.WaitGroup
}

// NewHTTPSink starts the delivery worker. The bearer token for collector
// auth is read from client storage at delivery time, not captured at
// construction. Call Close to flush and stop.
func NewHTTPSink(url string, store storage.Store, log *zap.Logger, opts SinkOptions) *HTTPSink {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &HTTPSink{
		url:    url,
		client: &http.Client{Timeout: opts.Timeout},
		store:  store,
		log:    log,
		opts:   opts,
		queue:  make(chan experiment.Result, opts.QueueSize),
	}

	s.wg.Add(1)
	go s.run()
	return s
}

// Enqueue hands an event to the worker without blocking. A full queue
// drops the event; the local log already holds it.
func (s *HTTPSink) Enqueue(r experiment.Result) {
	select {
	case s.queue <- r:
	default:
		s.log.Warn("delivery queue full, dropping event",
			zap.String("experiment", r.ExperimentID), zap.String("event", r.ID))
	}
}

// Close drains the queue and stops the worker.
func (s *HTTPSink) Close() {
	close(s.queue)
	s.wg.Wait()
}

func (s *HTTPSink) run() {
	defer s.wg.Done()
	for r := range s.queue {
		s.deliverWithRetry(r)
	}
}

func (s *HTTPSink) deliverWithRetry(r experiment.Result) {
	var err error
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		if err = s.deliver(r); err == nil {
			s.log.Debug("event delivered",
				zap.String("experiment", r.ExperimentID), zap.String("event", r.ID))
			return
		}
		if attempt < s.opts.MaxAttempts {
			time.Sleep(time.Duration(attempt) * s.opts.Backoff)
		}
	}
	s.log.Warn("event delivery failed, giving up",
		zap.String("experiment", r.ExperimentID),
		zap.String("event", r.ID),
		zap.Int("attempts", s.opts.MaxAttempts),
		zap.Error(err))
}

func (s *HTTPSink) deliver(r experiment.Result) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token, ok, _ := s.store.Get(storage.KeyAuthToken); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("collector returned %d", resp.StatusCode)
	}
	return nil
}
