package primitives

// Parameter maps arrive from whatever host-side decoder produced the rule
// description; YAML
// decodes integers as int, JSON decodes them as float64. These helpers
// accept either so the config parsers in config.go don't have to care.

func asInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func getInt(params map[string]any, key string) (int, bool, error) {
	raw, present := params[key]
	if !present {
		return 0, false, nil
	}
	n, ok := asInt(raw)
	if !ok {
		return 0, false, ValidationErrorf("%s must be an integer, got %T", key, raw)
	}
	return n, true, nil
}

func asIntSlice(raw any) ([]int, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, ValidationErrorf("expected a list")
	}
	out := make([]int, len(list))
	for i, e := range list {
		n, ok := asInt(e)
		if !ok {
			return nil, ValidationErrorf("element %d is not an integer", i)
		}
		out[i] = n
	}
	return out, nil
}

func getString(params map[string]any, key string) (string, bool, error) {
	raw, present := params[key]
	if !present {
		return "", false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", false, ValidationErrorf("%s must be a string, got %T", key, raw)
	}
	return s, true, nil
}

func getBool(params map[string]any, key string) (bool, bool, error) {
	raw, present := params[key]
	if !present {
		return false, false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, false, ValidationErrorf("%s must be a boolean, got %T", key, raw)
	}
	return b, true, nil
}

func getStringSlice(params map[string]any, key string) ([]string, error) {
	raw, present := params[key]
	if !present {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, ValidationErrorf("%s must be a list of strings", key)
	}
	out := make([]string, len(list))
	for i, e := range list {
		s, ok := e.(string)
		if !ok {
			return nil, ValidationErrorf("%s element %d is not a string", key, i)
		}
		out[i] = s
	}
	return out, nil
}
