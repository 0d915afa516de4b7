// Package tree loads and renders the untyped tree values the codec works on:
// nil, bool, int64, float64, string, []any and map[string]any.
package tree

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/typecodec/errors"
)

// ParseJSON parses a JSON document. Integral numbers that fit in int64
// are kept exact; other numbers are float64.
func ParseJSON(data []byte) (any, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.Load("invalid JSON document", nil)
	}
	return fromResult(gjson.ParseBytes(data)), nil
}

// SelectJSON parses the part of a JSON document addressed by a gjson path.
func SelectJSON(data []byte, path string) (any, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.Load("invalid JSON document", nil)
	}
	r := gjson.GetBytes(data, path)
	if !r.Exists() {
		return nil, errors.NotFound(errors.PhaseLoad, "path", path)
	}
	return fromResult(r), nil
}

func fromResult(r gjson.Result) any {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.String:
		return r.Str
	case gjson.Number:
		if !strings.ContainsAny(r.Raw, ".eE") {
			if n, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
				return n
			}
		}
		return r.Num
	}

	if r.IsArray() {
		items := r.Array()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = fromResult(item)
		}
		return out
	}
	out := make(map[string]any)
	r.ForEach(func(key, value gjson.Result) bool {
		out[key.Str] = fromResult(value)
		return true
	})
	return out
}

// ParseYAML parses a YAML document into a tree. Non-string mapping keys
// are formatted as strings and timestamps as RFC 3339 strings.
func ParseYAML(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, errors.Load("invalid YAML document", err)
	}
	return normalize(v), nil
}

func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, item := range x {
			x[k] = normalize(item)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range x {
			x[i] = normalize(item)
		}
		return x
	case int:
		return int64(x)
	case uint64:
		return float64(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	}
	return v
}

// Parse picks the parser by format name: json or yaml.
func Parse(format string, data []byte) (any, error) {
	switch strings.ToLower(format) {
	case "json":
		return ParseJSON(data)
	case "yaml", "yml":
		return ParseYAML(data)
	default:
		return nil, errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("unknown format %q", format))
	}
}

// RenderOptions control RenderJSON output.
type RenderOptions struct {
	Indent string
	Color  bool
	// Sort orders keys of indented output. Compact output of map trees is
	// always sorted.
	Sort bool
}

// RenderJSON encodes a tree as JSON, pretty printed when Indent is set.
func RenderJSON(v any, opts RenderOptions) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseSerialize, errors.KindInvalidInput, err, "encode JSON")
	}
	if opts.Indent != "" {
		data = pretty.PrettyOptions(data, &pretty.Options{
			Width:    80,
			Prefix:   "",
			Indent:   opts.Indent,
			SortKeys: opts.Sort,
		})
	}
	if opts.Color {
		data = pretty.Color(data, nil)
	}
	return data, nil
}

// RenderYAML encodes a tree as YAML.
func RenderYAML(v any) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseSerialize, errors.KindInvalidInput, err, "encode YAML")
	}
	return data, nil
}
