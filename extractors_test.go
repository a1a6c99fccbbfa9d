package tcup

import "testing"

func TestJSONValueExtractor(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		want   float64
		wantOK bool
	}{
		{"number", "value", `{"value": 42.5}`, 42.5, true},
		{"percent string", "cpu_usage", `{"status":"success","cpu_usage":"30%"}`, 30, true},
		{"nested", "memory_data.basic_info.percent", `{"memory_data":{"basic_info":{"percent":50}}}`, 50, true},
		{"array index", "cpu_data.cpu_percent.2", `{"cpu_data":{"cpu_percent":[10,20,30]}}`, 30, true},
		{"non numeric string", "memory_usage", `{"memory_usage":"4GB/8GB"}`, 0, false},
		{"missing", "value", `{"other": 1}`, 0, false},
		{"bool", "value", `{"value": true}`, 0, false},
		{"invalid json", "value", `not json`, 0, false},
		{"empty body", "value", ``, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := JSONValueExtractor(tt.path)([]byte(tt.body))
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("JSONValueExtractor(%q) = %v, %v; want %v, %v", tt.path, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestJSONAverageExtractor(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   float64
		wantOK bool
	}{
		{"numbers", `{"cpu_data":{"cpu_percent":[10,20,30,40,50,60,70,80]}}`, 45, true},
		{"mixed strings", `{"cpu_data":{"cpu_percent":["10%", 30, "x"]}}`, 20, true},
		{"empty array", `{"cpu_data":{"cpu_percent":[]}}`, 0, false},
		{"scalar", `{"cpu_data":{"cpu_percent":"12%"}}`, 12, true},
		{"missing", `{}`, 0, false},
		{"invalid json", `{`, 0, false},
	}

	extractor := JSONAverageExtractor("cpu_data.cpu_percent")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractor([]byte(tt.body))
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("got %v, %v; want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRegexValueExtractor(t *testing.T) {
	extractor, err := RegexValueExtractor(`"cpu_usage":\s*"([\d.]+%?)"`)
	if err != nil {
		t.Fatalf("RegexValueExtractor() error = %v", err)
	}

	if v, ok := extractor([]byte(`{"cpu_usage": "37.5%"}`)); !ok || v != 37.5 {
		t.Errorf("match = %v, %v; want 37.5, true", v, ok)
	}
	if _, ok := extractor([]byte(`{"memory_usage": "4GB"}`)); ok {
		t.Error("no match should yield no value")
	}

	noGroup, _ := RegexValueExtractor(`cpu`)
	if _, ok := noGroup([]byte(`cpu`)); ok {
		t.Error("pattern without capture group should yield no value")
	}
}

func TestRegexValueExtractor_InvalidPattern(t *testing.T) {
	if _, err := RegexValueExtractor(`([`); err == nil {
		t.Error("RegexValueExtractor() expected error for invalid pattern")
	}
}

func TestMustRegexValueExtractor_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustRegexValueExtractor() did not panic on invalid pattern")
		}
	}()
	MustRegexValueExtractor(`([`)
}

func TestFirstValue(t *testing.T) {
	extractor := FirstValue(
		JSONValueExtractor("a"),
		JSONValueExtractor("b"),
	)

	tests := []struct {
		body   string
		want   float64
		wantOK bool
	}{
		{`{"a": 1, "b": 2}`, 1, true},
		{`{"b": 2}`, 2, true},
		{`{"a": "n/a", "b": 3}`, 3, true},
		{`{}`, 0, false},
	}
	for _, tt := range tests {
		got, ok := extractor([]byte(tt.body))
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("FirstValue(%s) = %v, %v; want %v, %v", tt.body, got, ok, tt.want, tt.wantOK)
		}
	}

	if _, ok := FirstValue()([]byte(`{"a":1}`)); ok {
		t.Error("FirstValue() with no extractors should yield no value")
	}
}

func TestDefaultValueExtractor(t *testing.T) {
	if v, ok := DefaultValueExtractor([]byte(`{"value": 5, "percent": 9}`)); !ok || v != 5 {
		t.Errorf("value field = %v, %v", v, ok)
	}
	if v, ok := DefaultValueExtractor([]byte(`{"total": 8192, "percent": 50}`)); !ok || v != 50 {
		t.Errorf("percent field = %v, %v", v, ok)
	}
}
