package utils

// -----------------------------------------------------------------------------

// ValidSymbol reports whether s looks like a subscribable US equity ticker:
// 1-6 characters, uppercase letters with an optional single dot class
// suffix (BRK.A). Feeds reject anything else, so malformed strings are
// filtered before they reach a subscribe call.
func ValidSymbol(s string) bool {
	if len(s) == 0 || len(s) > 6 {
		return false
	}

	dots := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '.' {
			dots++
			if dots > 1 || i == 0 || i == len(s)-1 {
				return false
			}
			continue
		}
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------

// FilterSymbols returns the subset of symbols passing ValidSymbol.
func FilterSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if ValidSymbol(s) {
			out = append(out, s)
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// Batch splits symbols into chunks of at most size, preserving order. Used
// where an upstream feed caps symbols per subscribe call.
func Batch(symbols []string, size int) [][]string {
	if size <= 0 {
		return [][]string{symbols}
	}

	var out [][]string
	for start := 0; start < len(symbols); start += size {
		end := start + size
		if end > len(symbols) {
			end = len(symbols)
		}
		out = append(out, symbols[start:end])
	}
	return out
}
