package chat

// IsFalsy reports whether an option value represents "no value".
// Select options built with a nil value carry the literal string
// "null", and missing values arrive as empty strings.
func IsFalsy(value string) bool {
	switch value {
	case "", "null", "undefined":
		return true
	default:
		return false
	}
}
