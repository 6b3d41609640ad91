package profile

import (
	"fmt"
	"reflect"
	"sort"
)

// checkDocument walks schema against doc, recording one message per failing
// field path into fields. Unknown document keys are accepted; the schema
// constrains only the fields it names.
func checkDocument(doc map[string]any, schema Schema, prefix string, fields map[string]string) {
	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rules, ok := schema[name].(map[string]any)
		if !ok {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		value, present := doc[name]
		if !present {
			if required, _ := rules["required"].(bool); required {
				fields[path] = "required field is missing"
			}
			continue
		}
		typeName, _ := rules["type"].(string)
		if typeName != "" && !typeMatches(value, typeName) {
			fields[path] = fmt.Sprintf("expected %s, got %T", typeName, value)
			continue
		}
		if allowed, ok := rules["allowed"].([]any); ok && !valueAllowed(value, allowed) {
			fields[path] = fmt.Sprintf("value %v is not allowed", value)
			continue
		}
		if sub, ok := rules["schema"].(map[string]any); ok {
			if nested, ok := value.(map[string]any); ok {
				checkDocument(nested, Schema(sub), path, fields)
			}
		}
	}
}

// typeMatches accepts both JSON-decoded (float64) and YAML-decoded (int)
// numeric representations for integer and number rules.
func typeMatches(value any, typeName string) bool {
	switch typeName {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int64, uint64:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int64, uint64, float64:
			return true
		}
		return false
	case "list":
		_, ok := value.([]any)
		return ok
	case "dict":
		_, ok := value.(map[string]any)
		return ok
	}
	// unknown type rule: accept rather than guess
	return true
}

func valueAllowed(value any, allowed []any) bool {
	for _, a := range allowed {
		if reflect.DeepEqual(value, a) {
			return true
		}
		// tolerate int vs float64 mismatches across decoders
		if numEqual(value, a) {
			return true
		}
	}
	return false
}

func numEqual(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	return aok && bok && af == bf
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
