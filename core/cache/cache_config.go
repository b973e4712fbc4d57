package cache

// Config carries the cache's tunables.
type Config struct {
	// ImportFileName is the conventional name of the per-directory import
	// file whose changes invalidate every view beneath that directory.
	ImportFileName string `json:"import_file_name"`

	// EnableMetrics toggles hit/miss accounting.
	EnableMetrics bool `json:"enable_metrics"`
}

func DefaultConfig() *Config {
	return &Config{
		ImportFileName: "_imports.tmpl",
		EnableMetrics:  true,
	}
}

// Metrics is a point-in-time snapshot of cache performance counters.
type Metrics struct {
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	Invalidations int64   `json:"invalidations"`
	StatProbes    int64   `json:"stat_probes"`
	TotalEntries  int     `json:"total_entries"`
	HitRate       float64 `json:"hit_rate"`
}

func (m *Metrics) CalculateHitRate() {
	total := m.Hits + m.Misses
	if total > 0 {
		m.HitRate = float64(m.Hits) / float64(total) * 100
	} else {
		m.HitRate = 0
	}
}
