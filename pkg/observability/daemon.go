package observability

import (
	"encoding/json"
	"net"

	"github.com/aws/aws-xray-sdk-go/daemoncfg"
	"go.uber.org/zap"
)

// The daemon expects each UDP datagram to carry this header followed by
// one segment document.
var daemonHeader = []byte(`{"format": "json", "version": 1}` + "\n")

// DaemonCollector pushes closed segments to a local trace daemon over
// UDP. Transport failures are logged as warnings and the segment is
// dropped; the request path is never affected.
type DaemonCollector struct {
	conn   net.Conn
	logger *zap.Logger
}

// NewDaemonCollector dials the daemon at the given "host:port" address
func NewDaemonCollector(address string, logger *zap.Logger) (*DaemonCollector, error) {
	endpoints, err := daemoncfg.GetDaemonEndpointsFromString(address)
	if err != nil {
		return nil, err
	}
	if endpoints == nil {
		endpoints = daemoncfg.GetDefaultDaemonEndpoints()
	}

	conn, err := net.DialUDP("udp", nil, endpoints.UDPAddr)
	if err != nil {
		return nil, err
	}

	return &DaemonCollector{conn: conn, logger: logger}, nil
}

// Emit implements Collector
func (c *DaemonCollector) Emit(seg *Segment) {
	doc, err := json.Marshal(seg)
	if err != nil {
		c.logger.Warn("failed to encode trace segment", zap.String("segment", seg.Name), zap.Error(err))
		return
	}

	packet := append(append([]byte{}, daemonHeader...), doc...)
	if _, err := c.conn.Write(packet); err != nil {
		c.logger.Warn("failed to export trace segment", zap.String("segment", seg.Name), zap.Error(err))
	}
}

// Close releases the daemon connection
func (c *DaemonCollector) Close() error {
	return c.conn.Close()
}
