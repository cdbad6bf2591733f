package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"chat-hub/observability"
)

// TelemetryWorker periodically logs process health together with the
// hub counters. Failures to read a metric are logged and skipped, the
// worker never stops for them.
type TelemetryWorker struct {
	log      *slog.Logger
	monitor  *observability.Monitor
	interval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, monitor *observability.Monitor, interval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{log: log, monitor: monitor, interval: interval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry")
			return nil
		case <-ticker.C:
			w.report(proc)
		}
	}
}

func (w *TelemetryWorker) report(proc *process.Process) {
	stats := w.monitor.Snapshot()

	cpu, err := proc.CPUPercent()
	if err != nil {
		w.log.Error("Error while finding process cpu usage", "err", err)
		return
	}
	ram, err := proc.MemoryPercent()
	if err != nil {
		w.log.Error("Error while finding process ram usage", "err", err)
		return
	}

	w.log.Info("telemetry",
		"cpu_percent", cpu,
		"ram_percent", ram,
		"connections", stats.ConnectionsOpen,
		"sessions", stats.SessionsActive,
		"routed", stats.MessagesRouted,
		"persisted", stats.MessagesPersisted,
		"rejected", stats.MessagesRejected,
		"censored", stats.MessagesCensored,
		"alloc_mem_mb", stats.AllocMemMb,
		"uptime_s", stats.UptimeSeconds,
	)
}
