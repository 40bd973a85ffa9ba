package recorder_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/splitkit/splitkit/internal/experiment"
	"github.com/splitkit/splitkit/internal/identity"
	"github.com/splitkit/splitkit/internal/recorder"
	"github.com/splitkit/splitkit/internal/storage"
)

type captureSink struct {
	mu     sync.Mutex
	events []experiment.Result
}

func (c *captureSink) Enqueue(r experiment.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, r)
}

func (c *captureSink) all() []experiment.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]experiment.Result(nil), c.events...)
}

func TestRecordConversion_NoAssignmentIsNoOp(t *testing.T) {
	st := storage.NewMemoryStore()
	sink := &captureSink{}
	rec := recorder.New(st, identity.NewProvider(st), sink, zap.NewNop())

	rec.RecordConversion("checkout-cta", "clicks", 1)

	events, err := storage.LoadEvents(st)
	require.NoError(t, err)
	require.Empty(t, events)
	require.Empty(t, sink.all())
}

func TestRecordConversion_AppendsAndForwards(t *testing.T) {
	st := storage.NewMemoryStore()
	require.NoError(t, storage.SaveAssignments(st, storage.Assignments{
		"checkout-cta": "variant_a",
	}))

	ids := identity.NewProvider(st)
	userID, err := ids.UserID()
	require.NoError(t, err)

	sink := &captureSink{}
	rec := recorder.New(st, ids, sink, zap.NewNop())

	rec.RecordConversion("checkout-cta", "clicks", 2.5)

	events, err := storage.LoadEvents(st)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	require.NotEmpty(t, ev.ID)
	require.Equal(t, "checkout-cta", ev.ExperimentID)
	require.Equal(t, "variant_a", ev.VariantID)
	require.Equal(t, userID, ev.UserID)
	require.Equal(t, map[string]float64{"clicks": 2.5}, ev.Metrics)
	require.NotZero(t, ev.Timestamp)

	forwarded := sink.all()
	require.Len(t, forwarded, 1)
	require.Equal(t, ev.ID, forwarded[0].ID)
}

func TestHTTPSink_DeliversWithBearerToken(t *testing.T) {
	var mu sync.Mutex
	var gotAuth string
	received := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotAuth = r.Header.Get("Authorization")
		received++
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	st := storage.NewMemoryStore()
	require.NoError(t, st.Set(storage.KeyAuthToken, "secret"))

	sink := recorder.NewHTTPSink(srv.URL, st, zap.NewNop(), recorder.SinkOptions{})
	sink.Enqueue(experiment.Result{ID: "ev1", ExperimentID: "exp", VariantID: "v", UserID: "u",
		Metrics: map[string]float64{"clicks": 1}})
	sink.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, received)
	require.Equal(t, "Bearer secret", gotAuth)
}

func TestHTTPSink_RetriesThenSucceeds(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := recorder.NewHTTPSink(srv.URL, storage.NewMemoryStore(), zap.NewNop(), recorder.SinkOptions{
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
	})
	sink.Enqueue(experiment.Result{ID: "ev1", ExperimentID: "exp", VariantID: "v", UserID: "u",
		Metrics: map[string]float64{"clicks": 1}})
	sink.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 2, attempts)
}

func TestHTTPSink_DeliveryFailureNeverReachesCaller(t *testing.T) {
	// Point at a closed server so every attempt fails.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	st := storage.NewMemoryStore()
	require.NoError(t, storage.SaveAssignments(st, storage.Assignments{"exp": "v"}))

	sink := recorder.NewHTTPSink(srv.URL, st, zap.NewNop(), recorder.SinkOptions{
		MaxAttempts: 2,
		Backoff:     time.Millisecond,
		Timeout:     time.Second,
	})
	rec := recorder.New(st, identity.NewProvider(st), sink, zap.NewNop())

	rec.RecordConversion("exp", "clicks", 1)
	sink.Close()

	// The local log still holds the event.
	events, err := storage.LoadEvents(st)
	require.NoError(t, err)
	require.Len(t, events, 1)
}
