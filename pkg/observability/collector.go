package observability

// Collector receives closed root segments. Implementations are total:
// Emit never returns an error and never blocks the request path beyond a
// local buffer write, so a failing trace backend degrades to dropped
// segments rather than failed requests.
type Collector interface {
	Emit(seg *Segment)
}

// NopCollector discards every segment
type NopCollector struct{}

// Emit implements Collector
func (NopCollector) Emit(*Segment) {}

// MultiCollector fans a segment out to several collectors
type MultiCollector []Collector

// Emit implements Collector
func (m MultiCollector) Emit(seg *Segment) {
	for _, c := range m {
		c.Emit(seg)
	}
}
