package manifest

import "reflect"

// Build lays override over defaults and returns a normalized document that
// carries a valid identity. Neither input is modified. A nil override returns
// a copy of defaults.
func Build(defaults, override Document) (Document, error) {
	defaults, err := Normalize(defaults)
	if err != nil {
		return nil, err
	}
	if override != nil {
		if override, err = Normalize(override); err != nil {
			return nil, err
		}
	}
	doc := Merge(defaults, override)
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Merge deep-merges override onto base. Maps present on both sides are merged
// key by key, whatever their Go map type; any other override value, lists
// included, replaces the base value. The result shares no maps or slices with
// its inputs.
//
// Merge is idempotent: Merge(Merge(a, b), b) equals Merge(a, b).
func Merge(base, override Document) Document {
	return Document(mergeMaps(base, override))
}

func mergeMaps(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a))
	for k, v := range a {
		out[k] = deepCopyValue(v)
	}
	for k, v := range b {
		if overrideMap, ok := asMap(v); ok {
			if baseMap, ok := asMap(out[k]); ok {
				out[k] = mergeMaps(baseMap, overrideMap)
				continue
			}
		}
		out[k] = deepCopyValue(v)
	}
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Document:
		return m, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
