package renderer

import "time"

// RenderStats contains statistics about a completed render
type RenderStats struct {
	Iterations   int           // Iterations completed
	TotalSamples int64         // Total pixel samples traced
	Snapshots    int           // PPM snapshots written
	Elapsed      time.Duration // Wall-clock render time
}

// SamplesPerSecond returns the average tracing rate
func (rs RenderStats) SamplesPerSecond() float64 {
	if rs.Elapsed <= 0 {
		return 0
	}
	return float64(rs.TotalSamples) / rs.Elapsed.Seconds()
}
