package poller

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// JSONValue reads a numeric value at path (gjson syntax) from a JSON body.
//
// Numbers are returned as is. Strings are accepted when they parse as a
// number after trimming whitespace and a trailing "%", so both 30 and "30%"
// read as 30.
func JSONValue(body []byte, path string) (float64, bool) {
	if !gjson.ValidBytes(body) {
		return 0, false
	}
	res := gjson.GetBytes(body, path)
	switch res.Type {
	case gjson.Number:
		return res.Num, true
	case gjson.String:
		return ParseNumber(res.Str)
	default:
		return 0, false
	}
}

// ParseNumber parses s as a float, tolerating a trailing percent sign.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
