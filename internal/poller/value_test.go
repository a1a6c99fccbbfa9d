package poller

import "testing"

func TestJSONValue(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		path   string
		want   float64
		wantOK bool
	}{
		{"number", `{"value": 12.5}`, "value", 12.5, true},
		{"nested", `{"data": {"cpu": {"usage": 30}}}`, "data.cpu.usage", 30, true},
		{"percent string", `{"cpu_usage": "30%"}`, "cpu_usage", 30, true},
		{"padded string", `{"v": " 7.25 "}`, "v", 7.25, true},
		{"array index", `{"series": [1, 2, 3]}`, "series.2", 3, true},
		{"ratio string", `{"memory_usage": "4GB/8GB"}`, "memory_usage", 0, false},
		{"bool", `{"v": true}`, "v", 0, false},
		{"missing", `{"v": 1}`, "w", 0, false},
		{"invalid json", `{"v": `, "v", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := JSONValue([]byte(tt.body), tt.path)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("JSONValue() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		value, threshold float64
		has              bool
		want             string
	}{
		{10, 85.5, true, StatusOK},
		{85.5, 85.5, true, StatusBreach},
		{99, 85.5, true, StatusBreach},
		{99, 0, false, StatusOK},
	}
	for _, tt := range tests {
		if got := Evaluate(tt.value, tt.threshold, tt.has); got != tt.want {
			t.Errorf("Evaluate(%v, %v, %v) = %q, want %q", tt.value, tt.threshold, tt.has, got, tt.want)
		}
	}
}
