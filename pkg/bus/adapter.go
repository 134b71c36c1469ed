package bus

import (
	"time"

	"github.com/netlens/netlens/internal/id"
	"github.com/netlens/netlens/pkg/netevent"
	"github.com/netlens/netlens/pkg/store"
)

// BindStore subscribes the event store to the bus as its canonical
// consumer. Request observations go through the store's deduplicated
// ingest; response and error observations become terminal patches for the
// correlated event. Updates for a suppressed or evicted id are silent
// no-ops, which preserves the add-before-update ordering guarantee.
//
// The returned function detaches the store from the bus.
func BindStore(b *Bus, st *store.Store) (unbind func()) {
	return b.AddListener(func(obs Observation) {
		switch obs.Kind {
		case KindRequest:
			host, path, query := netevent.ParseURL(obs.URL)
			st.AddObserved(&netevent.Event{
				ID:             obs.ID,
				Timestamp:      obs.Timestamp,
				Method:         obs.Method,
				URL:            obs.URL,
				Host:           host,
				Path:           path,
				Query:          query,
				RequestHeaders: obs.Headers,
				RequestBody:    obs.Body,
				RequestSize:    obs.Size,
			})

		case KindResponse:
			patch := &netevent.Patch{
				ResponseHeaders: obs.Headers,
				ResponseBody:    obs.Body,
				RequestHeaders:  obs.RequestHeaders,
			}
			if obs.Status != 0 {
				patch.Status = netevent.Int(obs.Status)
				patch.DurationMs = netevent.Int64(obs.DurationMs)
			}
			if obs.StatusText != "" {
				patch.StatusText = netevent.String(obs.StatusText)
			}
			if obs.Size > 0 {
				patch.ResponseSize = netevent.Int64(obs.Size)
			}
			st.UpdateEvent(obs.ID, patch)

		case KindError:
			st.UpdateEvent(obs.ID, &netevent.Patch{
				Error:      netevent.String(obs.Error),
				DurationMs: netevent.Int64(obs.DurationMs),
			})
		}
	})
}

// Producer adapts the bus to the capture sink contract, so the
// interception layer can publish observations instead of writing a store
// directly. Both instrumentation paths then feed one pipeline.
type Producer struct {
	bus *Bus
	now func() time.Time
}

// NewProducer creates a Producer publishing to b.
func NewProducer(b *Bus) *Producer {
	return &Producer{bus: b, now: time.Now}
}

// AddEvent publishes a request observation and returns its correlation
// id. Called by the interception layer when a call starts.
func (p *Producer) AddEvent(ev *netevent.Event) string {
	if ev == nil {
		return ""
	}
	if ev.ID == "" {
		ev.ID = id.Event()
	}
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = p.now()
	}
	p.bus.Emit(Observation{
		Kind:      KindRequest,
		ID:        ev.ID,
		Timestamp: ts,
		Method:    ev.Method,
		URL:       ev.URL,
		Headers:   ev.RequestHeaders,
		Body:      ev.RequestBody,
		Size:      ev.RequestSize,
	})
	return ev.ID
}

// UpdateEvent publishes the completion of a call as a response or error
// observation, depending on the patch's terminal side.
func (p *Producer) UpdateEvent(eventID string, patch *netevent.Patch) {
	if eventID == "" || patch == nil {
		return
	}

	obs := Observation{ID: eventID, Timestamp: p.now()}
	switch {
	case patch.Error != nil:
		obs.Kind = KindError
		obs.Error = *patch.Error
		if patch.DurationMs != nil {
			obs.DurationMs = *patch.DurationMs
		}
	case patch.Status != nil:
		obs.Kind = KindResponse
		obs.Status = *patch.Status
		if patch.StatusText != nil {
			obs.StatusText = *patch.StatusText
		}
		obs.Headers = patch.ResponseHeaders
		obs.Body = patch.ResponseBody
		if patch.ResponseSize != nil {
			obs.Size = *patch.ResponseSize
		}
		if patch.DurationMs != nil {
			obs.DurationMs = *patch.DurationMs
		}
	default:
		// Non-terminal enrichment (late request headers, body bytes):
		// forwarded as a response-kind observation without a status.
		obs.Kind = KindResponse
		obs.Headers = patch.ResponseHeaders
		obs.Body = patch.ResponseBody
		obs.RequestHeaders = patch.RequestHeaders
		if patch.ResponseSize != nil {
			obs.Size = *patch.ResponseSize
		}
	}
	p.bus.Emit(obs)
}
