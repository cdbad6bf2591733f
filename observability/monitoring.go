// Package observability aggregates runtime counters for the telemetry
// worker and the stats endpoint.
package observability

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Stats is one sampled view of the process, serialized as-is on the
// stats endpoint.
type Stats struct {
	ConnectionsOpen   int64  `json:"connections_open"`
	SessionsActive    int64  `json:"sessions_active"`
	MessagesRouted    uint64 `json:"messages_routed"`
	MessagesPersisted uint64 `json:"messages_persisted"`
	MessagesRejected  uint64 `json:"messages_rejected"`
	MessagesCensored  uint64 `json:"messages_censored"`
	BroadcastsSent    uint64 `json:"broadcasts_sent"`
	AllocMemMb        uint64 `json:"alloc_mem_mb"`
	NumGC             uint32 `json:"num_gc"`
	UptimeSeconds     int64  `json:"uptime_seconds"`
}

// Monitor collects process-wide counters. All increments are atomic;
// there is no lock to contend on the hot send path.
type Monitor struct {
	started time.Time

	connectionsOpen   int64
	sessionsActive    int64
	messagesRouted    uint64
	messagesPersisted uint64
	messagesRejected  uint64
	messagesCensored  uint64
	broadcastsSent    uint64
}

func NewMonitor() *Monitor {
	return &Monitor{started: time.Now()}
}

func (m *Monitor) ConnOpened()  { atomic.AddInt64(&m.connectionsOpen, 1) }
func (m *Monitor) ConnClosed()  { atomic.AddInt64(&m.connectionsOpen, -1) }
func (m *Monitor) SessionUp()   { atomic.AddInt64(&m.sessionsActive, 1) }
func (m *Monitor) SessionDown() { atomic.AddInt64(&m.sessionsActive, -1) }

func (m *Monitor) IncrRouted()    { atomic.AddUint64(&m.messagesRouted, 1) }
func (m *Monitor) IncrPersisted() { atomic.AddUint64(&m.messagesPersisted, 1) }
func (m *Monitor) IncrRejected()  { atomic.AddUint64(&m.messagesRejected, 1) }
func (m *Monitor) IncrCensored()  { atomic.AddUint64(&m.messagesCensored, 1) }
func (m *Monitor) IncrBroadcast() { atomic.AddUint64(&m.broadcastsSent, 1) }

// Snapshot samples the counters plus the Go heap.
func (m *Monitor) Snapshot() Stats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return Stats{
		ConnectionsOpen:   atomic.LoadInt64(&m.connectionsOpen),
		SessionsActive:    atomic.LoadInt64(&m.sessionsActive),
		MessagesRouted:    atomic.LoadUint64(&m.messagesRouted),
		MessagesPersisted: atomic.LoadUint64(&m.messagesPersisted),
		MessagesRejected:  atomic.LoadUint64(&m.messagesRejected),
		MessagesCensored:  atomic.LoadUint64(&m.messagesCensored),
		BroadcastsSent:    atomic.LoadUint64(&m.broadcastsSent),
		AllocMemMb:        mem.Alloc / 1024 / 1024,
		NumGC:             mem.NumGC,
		UptimeSeconds:     int64(time.Since(m.started).Seconds()),
	}
}
