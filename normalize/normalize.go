// ABOUTME: Canonicalization of names, emails, phones, and company strings
// ABOUTME: Pure functions; an empty string means the signal is unusable
package normalize

import "strings"

var honorifics = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "miss": true,
	"dr": true, "prof": true, "sir": true,
}

var nameSuffixes = map[string]bool{
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true,
	"phd": true, "md": true, "esq": true,
}

var companySuffixes = map[string]bool{
	"inc": true, "llc": true, "ltd": true, "corp": true, "co": true,
	"corporation": true, "company": true, "gmbh": true, "plc": true,
}

// Name lowercases, strips honorifics and generational/degree suffixes, and
// collapses whitespace.
func Name(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	var kept []string
	for i, f := range fields {
		w := strings.Trim(f, ".,")
		if w == "" {
			continue
		}
		if i == 0 && honorifics[w] && len(fields) > 1 {
			continue
		}
		if i == len(fields)-1 && nameSuffixes[w] && len(kept) > 0 {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// Email lowercases and trims. Malformed addresses yield "".
func Email(s string) string {
	e := strings.ToLower(strings.TrimSpace(s))
	at := strings.Index(e, "@")
	if at <= 0 || at != strings.LastIndex(e, "@") {
		return ""
	}
	domain := e[at+1:]
	if domain == "" || !strings.Contains(domain, ".") {
		return ""
	}
	if strings.ContainsAny(e, " \t") {
		return ""
	}
	return e
}

// Phone strips punctuation and returns an E.164-like string. Recognized US
// formats (10 digits, or 11 with a leading 1) get a +1 prefix; numbers
// already carrying + keep their country code. Anything else yields "".
func Phone(s string) string {
	var digits strings.Builder
	plus := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '+' && i == 0:
			plus = true
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.' || r == '/':
			// separator, skip
		default:
			return ""
		}
	}
	d := digits.String()
	switch {
	case plus && len(d) >= 7:
		return "+" + d
	case len(d) == 10:
		return "+1" + d
	case len(d) == 11 && d[0] == '1':
		return "+" + d
	}
	return ""
}

// IsDomestic reports whether a raw phone normalizes to a US number. This is
// the SMS send-eligibility gate.
func IsDomestic(s string) bool {
	p := Phone(s)
	return len(p) == 12 && strings.HasPrefix(p, "+1")
}

// Company lowercases, strips trailing legal suffixes, and collapses
// whitespace.
func Company(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	for len(fields) > 1 {
		last := strings.Trim(fields[len(fields)-1], ".,")
		if !companySuffixes[last] {
			break
		}
		fields = fields[:len(fields)-1]
	}
	var kept []string
	for _, f := range fields {
		w := strings.Trim(f, ".,")
		if w != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}
