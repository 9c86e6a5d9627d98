package common

// UnknownStr is the String() value of out-of-range enum values.
const UnknownStr = "unknown"

// Dedup returns the distinct elements of s in first-seen order.
func Dedup[S ~[]E, E comparable](s S) S {
	if s == nil {
		return nil
	}

	out := make(S, 0, len(s))
	seen := make(map[E]struct{}, len(s))

	for _, v := range s {
		if _, ok := seen[v]; ok {
			continue
		}

		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}
