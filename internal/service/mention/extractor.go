package mention

// ExtractHandles scans free text for @handle references and returns the
// distinct candidate handles in order of first occurrence.
//
// A handle is a maximal run of letters, digits, underscore, and dot. A
// mention counts only when the @ sits at the start of the text or after
// whitespace, so addresses like user@domain.com are not picked up
// mid-word. Matching is case-sensitive; duplicates collapse to the first
// occurrence. Pure and total: never fails, touches no storage.
func ExtractHandles(text string) []string {
	var handles []string
	seen := make(map[string]struct{})

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '@' {
			continue
		}
		if i > 0 && !isSpace(runes[i-1]) {
			continue
		}

		j := i + 1
		for j < len(runes) && isHandleRune(runes[j]) {
			j++
		}
		if j == i+1 {
			continue // bare @
		}

		h := string(runes[i+1 : j])
		if _, ok := seen[h]; !ok {
			seen[h] = struct{}{}
			handles = append(handles, h)
		}
		i = j - 1
	}

	return handles
}

func isHandleRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '.':
		return true
	}
	return false
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
