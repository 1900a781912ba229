package domain

import "strings"

// expandTemplate substitutes positional capture references in the replacement
// template: $1 or ${1} expands to the corresponding capture, $0 to the whole
// matched span, and $$ to a literal dollar sign. A reference to a group the
// pattern does not have, or a group that did not participate in the match,
// expands to the empty string. The syntax deliberately mirrors
// regexp.Regexp.Expand so operator expectations match the engine in use.
func expandTemplate(template, matched string, captures []string) string {
	var b strings.Builder

	for {
		i := strings.IndexByte(template, '$')
		if i < 0 || i == len(template)-1 {
			b.WriteString(template)

			return b.String()
		}

		b.WriteString(template[:i])
		rest := template[i+1:]

		switch {
		case rest[0] == '$':
			b.WriteByte('$')
			template = rest[1:]
		case rest[0] == '{':
			num, tail, ok := parseBracedRef(rest[1:])
			if !ok {
				b.WriteByte('$')
				template = rest

				continue
			}

			b.WriteString(groupText(num, matched, captures))
			template = tail
		default:
			num, tail, ok := parseDigits(rest)
			if !ok {
				b.WriteByte('$')
				template = rest

				continue
			}

			b.WriteString(groupText(num, matched, captures))
			template = tail
		}
	}
}

func groupText(num int, matched string, captures []string) string {
	if num == 0 {
		return matched
	}

	if num-1 < len(captures) {
		return captures[num-1]
	}

	return ""
}

func parseDigits(s string) (num int, tail string, ok bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		num = num*10 + int(s[i]-'0')
		i++
	}

	return num, s[i:], i > 0
}

func parseBracedRef(s string) (num int, tail string, ok bool) {
	num, rest, ok := parseDigits(s)
	if !ok || len(rest) == 0 || rest[0] != '}' {
		return 0, "", false
	}

	return num, rest[1:], true
}
