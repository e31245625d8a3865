package server

import (
	"context"
	"time"

	"github.com/minerdash/minerdash/internal/progress"
	"github.com/minerdash/minerdash/internal/protocol"
	"go.uber.org/zap"
)

// simulatedPlotSize is the number of work units of one simulated phase
const simulatedPlotSize = 400

// Simulate runs demo plot generation and verification jobs back to back,
// publishing their progress, until ctx is done. One unit of work is done per
// tick.
func (s *Server) Simulate(ctx context.Context, tick time.Duration) error {
	phases := []struct {
		style     progress.Style
		subsystem string
	}{
		{progress.Generation, "plotReader"},
		{progress.Verification, "plotVerifier"},
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for round := 1; ; round++ {
		for _, phase := range phases {
			log := s.subsystems.Logger(phase.subsystem)
			log.Info("Simulated job started",
				zap.String("style", string(phase.style)),
				zap.Int("round", round),
			)

			tr := progress.NewTracker(phase.style, simulatedPlotSize, func(p *protocol.Progress) {
				log.Debug("Progress", zap.Float64("percent", p.Percent))
				s.Publish(p)
			})
			tr.Set(0)

			for i := 0; i < simulatedPlotSize; i++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					tr.Add(1)
				}
			}
			log.Info("Simulated job finished", zap.Int("round", round))
		}
	}
}
