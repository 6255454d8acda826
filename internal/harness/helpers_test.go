package harness

import (
	"github.com/roach88/superstep/internal/pregel"
	"github.com/roach88/superstep/internal/store"
)

func stat(superstep int, sent, delivered, pending int64) pregel.SuperstepStats {
	return pregel.SuperstepStats{Superstep: superstep, Sent: sent, Delivered: delivered, Pending: pending}
}

func runWithStats(stats ...pregel.SuperstepStats) *store.Run {
	return &store.Run{Stats: stats}
}
