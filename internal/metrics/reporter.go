package metrics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kemalerbakirci/ws-fanout-slow-client-killer/internal/broadcast"
	"github.com/rs/zerolog"
)

// Reporter periodically logs the global summary record followed by one
// per-client record, at a single unified cadence (SPEC_FULL.md §9, Q3).
// It runs as its own goroutine, reading the Server's registry only
// through its thread-safe Snapshot/ClientCount/DisconnectCount methods.
type Reporter struct {
	server   *broadcast.Server
	observer *Observer
	logger   zerolog.Logger
	rate     float64
	asJSON   bool
}

// NewReporter constructs a Reporter. rate is the configured publish
// rate, included in the summary for operator context.
func NewReporter(server *broadcast.Server, observer *Observer, logger zerolog.Logger, rate float64, asJSON bool) *Reporter {
	return &Reporter{server: server, observer: observer, logger: logger, rate: rate, asJSON: asJSON}
}

type summaryRecord struct {
	Type             string  `json:"type"`
	Clients          int     `json:"clients"`
	PubRate          float64 `json:"pub_rate"`
	E2EP50Ms         float64 `json:"e2e_p50_ms"`
	E2EP95Ms         float64 `json:"e2e_p95_ms"`
	DisconnectsTotal int64   `json:"disconnects_total"`
}

type clientRecord struct {
	Type          string  `json:"type"`
	ClientID      int64   `json:"client_id"`
	QueueLen      int     `json:"queue_len"`
	DropsTotal    int64   `json:"drops_total"`
	SendLatencyMs float64 `json:"send_latency_ms"`
}

// Run logs a summary and per-client record every interval until ctx is
// cancelled.
func (r *Reporter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.report()
		}
	}
}

func (r *Reporter) report() {
	clients := r.server.Snapshot()
	p50, p95 := r.observer.Percentiles()

	summary := summaryRecord{
		Type:             "summary",
		Clients:          len(clients),
		PubRate:          r.rate,
		E2EP50Ms:         msOf(p50),
		E2EP95Ms:         msOf(p95),
		DisconnectsTotal: r.server.DisconnectCount(),
	}

	if r.asJSON {
		if b, err := json.Marshal(summary); err == nil {
			r.logger.Info().Msg(string(b))
		}
	} else {
		r.logger.Info().
			Int("clients", summary.Clients).
			Float64("rate", summary.PubRate).
			Float64("e2e_p50_ms", summary.E2EP50Ms).
			Float64("e2e_p95_ms", summary.E2EP95Ms).
			Int64("disconnects_total", summary.DisconnectsTotal).
			Msg("fanout summary")
	}

	for _, cs := range clients {
		depth := 0
		if cs.Queue != nil {
			depth = cs.Queue.Len()
		}
		r.observer.SetQueueDepth(cs.ID, depth)

		rec := clientRecord{
			Type:          "client",
			ClientID:      cs.ID,
			QueueLen:      depth,
			DropsTotal:    cs.DropsTotal(),
			SendLatencyMs: msOf(cs.MeanSendTime()),
		}
		if r.asJSON {
			if b, err := json.Marshal(rec); err == nil {
				r.logger.Info().Msg(string(b))
			}
		} else {
			r.logger.Info().
				Int64("client_id", rec.ClientID).
				Int("queue_len", rec.QueueLen).
				Int64("drops_total", rec.DropsTotal).
				Float64("send_latency_ms", rec.SendLatencyMs).
				Msg("fanout client")
		}
	}
}

func msOf(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
