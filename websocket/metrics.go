package websocket

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	wsConnects = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gmocoin", Subsystem: "ws", Name: "connects_total",
		Help: "Total WebSocket connection attempts",
	}, []string{"status"})

	wsFrames = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gmocoin", Subsystem: "ws", Name: "frames_total",
		Help: "Total data frames received per channel",
	}, []string{"channel"})

	wsDecodeDrops = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gmocoin", Subsystem: "ws", Name: "decode_drops_total",
		Help: "Frames dropped because they did not decode into the channel's record type",
	}, []string{"channel"})

	wsErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gmocoin", Subsystem: "ws", Name: "errors_total",
		Help: "Terminal subscription errors by type",
	}, []string{"channel", "type"})
)

// RegisterMetrics registers the websocket collectors with r. Counters are updated whether or not
// they are registered. Registering twice with the same r is a no-op.
func RegisterMetrics(r prometheus.Registerer) {
	for _, c := range []prometheus.Collector{wsConnects, wsFrames, wsDecodeDrops, wsErrors} {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}

func incConnect(status string)         { wsConnects.WithLabelValues(status).Inc() }
func incFrame(channel string)          { wsFrames.WithLabelValues(channel).Inc() }
func incDecodeDrop(channel string)     { wsDecodeDrops.WithLabelValues(channel).Inc() }
func incError(channel, errType string) { wsErrors.WithLabelValues(channel, errType).Inc() }
