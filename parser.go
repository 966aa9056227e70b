package fabriclog

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// keyAliases maps alternative keys models tend to emit onto record keys.
var keyAliases = map[string]string{
	"length_m":     "length",
	"total_length": "length",
	"price":        "total_price",
	"unit_price":   "unit_price_per_m",
}

var textKeys = []string{"name", "material", "width", "color", "shop"}

// ParseRecord decodes the JSON object embedded in a model reply. The object
// is the span from the first '{' to the last '}', so prose and code fences
// around it are ignored. Decoding is tolerant: missing keys stay blank,
// unknown keys are dropped and numbers given as text are coerced. When no
// object can be found or decoded the error is a *MalformedResponse carrying
// the reply.
func ParseRecord(raw string) (*FabricRecord, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, &MalformedResponse{Raw: raw, Err: ErrNoJSONObject}
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &obj); err != nil {
		return nil, &MalformedResponse{Raw: raw, Err: err}
	}

	var rec FabricRecord
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rec,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, &MalformedResponse{Raw: raw, Err: err}
	}
	if err := dec.Decode(normalizeFields(obj)); err != nil {
		return nil, &MalformedResponse{Raw: raw, Err: err}
	}
	return &rec, nil
}

// normalizeFields reduces a decoded object to the record keys with values of
// the expected kinds. An unreadable length becomes 1 so the form shows a
// value to correct; every other unreadable number becomes 0.
func normalizeFields(obj map[string]any) map[string]any {
	in := make(map[string]any, len(obj))
	for k, v := range obj {
		in[strings.ToLower(strings.TrimSpace(k))] = v
	}
	for alias, key := range keyAliases {
		if _, ok := in[key]; ok {
			continue
		}
		if v, ok := in[alias]; ok {
			in[key] = v
		}
	}

	out := make(map[string]any, len(recordKeys)+1)
	for _, key := range textKeys {
		out[key] = coerceText(in[key])
	}
	if v, ok := in["length"]; ok && !isBlank(v) {
		if f, ok := coerceNumber(v, parseLength); ok && f >= 0 {
			out["length"] = f
		} else {
			out["length"] = 1.0
		}
	}
	if v, ok := in["total_price"]; ok {
		f, _ := coerceNumber(v, parseNumber)
		out["total_price"] = math.Round(f)
	}
	if v, ok := in["unit_price_per_m"]; ok {
		f, _ := coerceNumber(v, parseNumber)
		out["unit_price_per_m"] = math.Floor(f)
	}
	return out
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}
