package ir

// Object returns the nested object stored under key, or nil when the key is
// absent or holds another kind.
func (obj IRObject) Object(key string) IRObject {
	v, _ := obj[key].(IRObject)
	return v
}

// Int returns the integer stored under key. ok is false when the key is
// absent or not an IRInt.
func (obj IRObject) Int(key string) (int64, bool) {
	v, ok := obj[key].(IRInt)
	return int64(v), ok
}

// String returns the string stored under key. ok is false when the key is
// absent or not an IRString.
func (obj IRObject) String(key string) (string, bool) {
	v, ok := obj[key].(IRString)
	return string(v), ok
}

// Bool returns the boolean stored under key.
func (obj IRObject) Bool(key string) (bool, bool) {
	v, ok := obj[key].(IRBool)
	return bool(v), ok
}

// Path walks nested objects and returns the value at the end of keys.
func (obj IRObject) Path(keys ...string) (IRValue, bool) {
	var cur IRValue = obj
	for _, k := range keys {
		o, ok := cur.(IRObject)
		if !ok {
			return nil, false
		}
		cur, ok = o[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
