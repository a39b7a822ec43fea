package observability

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"
)

// ErrorInfo describes a failure attached to a segment
type ErrorInfo struct {
	Message string `json:"message"`
}

// Segment is the trace record for one request (root) or one internal
// operation (subsegment). Times are epoch seconds, matching the daemon
// wire format.
type Segment struct {
	Name        string                            `json:"name"`
	ID          string                            `json:"id"`
	TraceID     string                            `json:"trace_id,omitempty"`
	StartTime   float64                           `json:"start_time"`
	EndTime     float64                           `json:"end_time,omitempty"`
	Annotations map[string]interface{}            `json:"annotations,omitempty"`
	Metadata    map[string]map[string]interface{} `json:"metadata,omitempty"`
	Error       *ErrorInfo                        `json:"error,omitempty"`
	Subsegments []*Segment                        `json:"subsegments,omitempty"`

	mu sync.Mutex
}

func newSegment(name string) *Segment {
	return &Segment{
		Name:      name,
		ID:        newSegmentID(),
		StartTime: epochSeconds(time.Now()),
	}
}

// AddAnnotation attaches an indexed key/value pair
func (s *Segment) AddAnnotation(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Annotations == nil {
		s.Annotations = make(map[string]interface{})
	}
	s.Annotations[key] = value
}

// AddMetadata attaches an unindexed key/value pair under a namespace
func (s *Segment) AddMetadata(namespace, key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Metadata == nil {
		s.Metadata = make(map[string]map[string]interface{})
	}
	if s.Metadata[namespace] == nil {
		s.Metadata[namespace] = make(map[string]interface{})
	}
	s.Metadata[namespace][key] = value
}

// RecordError attaches a failure without closing the segment
func (s *Segment) RecordError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Error = &ErrorInfo{Message: message}
}

func (s *Segment) addSubsegment(sub *Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Subsegments = append(s.Subsegments, sub)
}

func (s *Segment) close(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.EndTime = epochSeconds(at)
}

// Closed reports whether the segment's end time has been set
func (s *Segment) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.EndTime != 0
}

// Duration returns the recorded duration, zero while the segment is open
func (s *Segment) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.EndTime == 0 {
		return 0
	}
	return time.Duration((s.EndTime - s.StartTime) * float64(time.Second))
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// newSegmentID returns a 64-bit random identifier rendered as hex
func newSegmentID() string {
	var b [8]byte
	rand.Read(b[:])
	return fmt.Sprintf("%02x%02x%02x%02x%02x%02x%02x%02x",
		b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7])
}

// newTraceID returns a trace identifier in the daemon's expected format:
// a version, the epoch of the original request, and 96 random bits
func newTraceID() string {
	var b [12]byte
	rand.Read(b[:])
	return fmt.Sprintf("1-%08x-%02x", time.Now().Unix(), b)
}
