package observability

import (
	"context"

	"go.uber.org/zap"
)

// AddAnnotation attaches an indexed scalar key/value pair to the current
// segment. Annotations feed trace search, so non-scalar values are
// rejected with a warning. Never fails the caller: outside an active
// segment, or with tracing disabled, the call is a no-op.
func (r *Recorder) AddAnnotation(ctx context.Context, key string, value interface{}) {
	seg := r.Current(ctx)
	if seg == nil {
		return
	}
	if !isScalar(value) {
		r.logger.Warn("dropping non-scalar annotation", zap.String("key", key))
		return
	}
	seg.AddAnnotation(key, value)
}

// AddMetadata attaches an arbitrary value to the current segment under a
// namespace. Metadata is unindexed debugging detail; like AddAnnotation,
// failures never propagate to the caller.
func (r *Recorder) AddMetadata(ctx context.Context, namespace, key string, value interface{}) {
	seg := r.Current(ctx)
	if seg == nil {
		return
	}
	if namespace == "" {
		namespace = "default"
	}
	seg.AddMetadata(namespace, key, value)
}

func isScalar(value interface{}) bool {
	switch value.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}
