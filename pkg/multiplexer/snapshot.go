package multiplexer

// ProviderStatus describes one provider group.
type ProviderStatus struct {
	Name     string   `json:"name"`
	Members  []string `json:"members"`
	Offline  bool     `json:"offline"`
	Requests int64    `json:"requests"`
	Active   string   `json:"active,omitempty"`
}

// Snapshot is a point-in-time view of the multiplexer.
type Snapshot struct {
	Providers    []ProviderStatus `json:"providers"`
	InFlight     int              `json:"inFlight"`
	QueueDepth   int              `json:"downloadQueueDepth"`
	Reserved     int              `json:"reserved"`
	PreloadDepth int              `json:"preloadDepth"`
	Tracked      int              `json:"tracked"`
	RAMBytes     int64            `json:"ramBytes"`
	VRAMBytes    int64            `json:"vramBytes"`
}

// Snapshot returns the current state. Offline flags are also published to
// the metrics.
func (m *Multiplexer) Snapshot() Snapshot {
	candidates := m.candidates()
	providers := make([]ProviderStatus, len(candidates))

	m.mu.Lock()
	tracked := len(m.items)
	for i, c := range candidates {
		providers[i] = ProviderStatus{
			Name:     c.primary.Name(),
			Requests: c.group.requests.Load(),
		}
		for _, member := range c.members {
			providers[i].Members = append(providers[i].Members, member.Name())
		}
		if it, ok := m.active[c.primary]; ok {
			providers[i].Active = it.State().String() + " " + it.ID().String()
		}
	}
	m.mu.Unlock()

	for i, c := range candidates {
		providers[i].Offline = c.primary.Offline()
		m.metrics.SetOffline(providers[i].Name, providers[i].Offline)
	}

	ram, vram := m.Usage()
	return Snapshot{
		Providers:    providers,
		InFlight:     m.InFlight(),
		QueueDepth:   m.cfg.DownloadQueueDepth,
		Reserved:     m.Reserved(),
		PreloadDepth: m.cfg.PreloadDepth,
		Tracked:      tracked,
		RAMBytes:     ram,
		VRAMBytes:    vram,
	}
}
