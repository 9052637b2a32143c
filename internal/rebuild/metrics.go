package rebuild

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики перестройки сделок
// ============================================================
//
// Перестройка - самая тяжёлая операция системы (полный прогон истории
// филлов аккаунта), поэтому мониторим длительность, объёмы и исходы.

// RebuildDuration - длительность полной перестройки аккаунта
var RebuildDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "cryptopnl",
		Subsystem: "rebuild",
		Name:      "duration_seconds",
		Help:      "Duration of a full account rebuild in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	},
)

// RebuildsTotal - количество перестроек по исходу
var RebuildsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "cryptopnl",
		Subsystem: "rebuild",
		Name:      "total",
		Help:      "Number of rebuild invocations by result",
	},
	[]string{"result"}, // success, error
)

// TradesCreated - количество созданных перестройкой сделок
var TradesCreated = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "cryptopnl",
		Subsystem: "rebuild",
		Name:      "trades_created_total",
		Help:      "Number of trades produced by rebuilds",
	},
)

// ExecutionsProcessed - количество филлов, прошедших через движок
var ExecutionsProcessed = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "cryptopnl",
		Subsystem: "rebuild",
		Name:      "executions_processed_total",
		Help:      "Number of raw executions fed into the matching engine",
	},
)

// SymbolGroupsProcessed - количество обработанных групп символов
var SymbolGroupsProcessed = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "cryptopnl",
		Subsystem: "rebuild",
		Name:      "symbol_groups_total",
		Help:      "Number of per-symbol execution groups processed",
	},
)
