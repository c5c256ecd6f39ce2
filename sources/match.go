package sources

import "strings"

// simpleMatch checks a name against a mapped pattern: exact equality plus
// the "xxx*", "*xxx" and "*xxx*" forms, with inner '*' handled recursively.
func simpleMatch(pattern, name string) bool {
	first := strings.IndexByte(pattern, '*')
	if first == -1 {
		return pattern == name
	}

	if first == 0 {
		if len(pattern) == 1 {
			return true
		}
		next := strings.IndexByte(pattern[1:], '*')
		if next == -1 {
			return strings.HasSuffix(name, pattern[1:])
		}
		next++
		part := pattern[1:next]
		if part == "" {
			return simpleMatch(pattern[next:], name)
		}
		for idx := strings.Index(name, part); idx != -1; {
			if simpleMatch(pattern[next:], name[idx+len(part):]) {
				return true
			}
			rest := strings.Index(name[idx+1:], part)
			if rest == -1 {
				break
			}
			idx = idx + 1 + rest
		}
		return false
	}

	return len(name) >= first &&
		pattern[:first] == name[:first] &&
		simpleMatch(pattern[first:], name[first:])
}
