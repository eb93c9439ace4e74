package otel

import (
	"encoding/json"
	"net/http"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Point is one collected int64 data point in the JSON view.
type Point struct {
	Name       string            `json:"name"`
	Unit       string            `json:"unit,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Value      int64             `json:"value"`
}

// Points flattens the int64 sums and gauges in rm.
func Points(rm metricdata.ResourceMetrics) []Point {
	var out []Point
	add := func(m metricdata.Metrics, dps []metricdata.DataPoint[int64]) {
		for _, dp := range dps {
			p := Point{Name: m.Name, Unit: m.Unit, Value: dp.Value}
			if dp.Attributes.Len() > 0 {
				p.Attributes = make(map[string]string, dp.Attributes.Len())
				for _, kv := range dp.Attributes.ToSlice() {
					p.Attributes[string(kv.Key)] = kv.Value.Emit()
				}
			}
			out = append(out, p)
		}
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				add(m, data.DataPoints)
			case metricdata.Gauge[int64]:
				add(m, data.DataPoints)
			}
		}
	}
	return out
}

// Handler collects reader on every request and writes the points as JSON.
// It serves pull-based inspection where no OTLP collector is configured.
func Handler(reader *sdkmetric.ManualReader) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			http.Error(w, "otel metrics disabled", http.StatusServiceUnavailable)
			return
		}

		var rm metricdata.ResourceMetrics
		if err := reader.Collect(r.Context(), &rm); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Points(rm))
	})
}
