package tcup

import (
	"regexp"

	"github.com/jpalmerr/tcup/internal/poller"
	"github.com/tidwall/gjson"
)

// JSONValueExtractor returns a [ValueExtractor] reading the value at a gjson
// path.
//
// Numbers are read as is; strings are accepted when they parse as a number
// after trimming a trailing "%". Anything else, and invalid JSON, yields no
// value.
//
// Example:
//
//	// For response: {"memory_data": {"basic_info": {"percent": 50}}}
//	extractor := tcup.JSONValueExtractor("memory_data.basic_info.percent")
func JSONValueExtractor(path string) ValueExtractor {
	return func(body []byte) (float64, bool) {
		return poller.JSONValue(body, path)
	}
}

// JSONAverageExtractor returns a [ValueExtractor] averaging the numeric
// elements of the JSON array at path. Non-numeric elements are skipped; an
// array without numbers yields no value. A scalar at path is read like
// [JSONValueExtractor].
//
// Example:
//
//	// For response: {"cpu_data": {"cpu_percent": [10, 20, 30]}}
//	extractor := tcup.JSONAverageExtractor("cpu_data.cpu_percent")
func JSONAverageExtractor(path string) ValueExtractor {
	return func(body []byte) (float64, bool) {
		if !gjson.ValidBytes(body) {
			return 0, false
		}
		res := gjson.GetBytes(body, path)
		if !res.IsArray() {
			return poller.JSONValue(body, path)
		}

		var sum float64
		var n int
		res.ForEach(func(_, v gjson.Result) bool {
			switch v.Type {
			case gjson.Number:
				sum += v.Num
				n++
			case gjson.String:
				if f, ok := poller.ParseNumber(v.Str); ok {
					sum += f
					n++
				}
			}
			return true
		})
		if n == 0 {
			return 0, false
		}
		return sum / float64(n), true
	}
}

// RegexValueExtractor returns a [ValueExtractor] parsing the first capture
// group of pattern as a number (a trailing "%" is allowed).
//
// Returns an error if the pattern is invalid.
//
// Example:
//
//	extractor, err := tcup.RegexValueExtractor(`"cpu_usage":\s*"([\d.]+)%"`)
func RegexValueExtractor(pattern string) (ValueExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	return func(body []byte) (float64, bool) {
		matches := re.FindSubmatch(body)
		if len(matches) < 2 {
			return 0, false
		}
		return poller.ParseNumber(string(matches[1]))
	}, nil
}

// MustRegexValueExtractor is like [RegexValueExtractor] but panics if the
// pattern is invalid.
func MustRegexValueExtractor(pattern string) ValueExtractor {
	extractor, err := RegexValueExtractor(pattern)
	if err != nil {
		panic("tcup: invalid regex pattern: " + err.Error())
	}
	return extractor
}

// FirstValue returns a [ValueExtractor] that tries extractors in order and
// returns the first value found.
//
// Example:
//
//	extractor := tcup.FirstValue(
//	    tcup.JSONValueExtractor("data.percent"),
//	    tcup.JSONValueExtractor("cpu_usage"),
//	)
func FirstValue(extractors ...ValueExtractor) ValueExtractor {
	return func(body []byte) (float64, bool) {
		for _, extractor := range extractors {
			if v, ok := extractor(body); ok {
				return v, true
			}
		}
		return 0, false
	}
}

// DefaultValueExtractor is used when a [Probe] has neither a value path nor
// an extractor. It reads the top-level "value" field, then "percent".
var DefaultValueExtractor = FirstValue(
	JSONValueExtractor(poller.DefaultValuePath),
	JSONValueExtractor("percent"),
)
