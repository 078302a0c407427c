package logger

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// RedactEmail masks the local part of an address while keeping the
// domain, so redacted log lines stay useful when debugging delivery
// issues: "john.doe@example.com" becomes "jo***@example.com". Local
// parts of one or two characters are masked entirely, and anything
// that does not look like an address is masked wholesale.
func RedactEmail(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at <= 0 || at == len(addr)-1 {
		return "***@***"
	}
	local, domain := addr[:at], addr[at+1:]
	if len(local) <= 2 {
		return "***@" + domain
	}
	return local[:2] + "***@" + domain
}

// redactPIIValue masks a field value: keys that name an address get
// masked directly, every other value is swept for embedded addresses.
func redactPIIValue(key, val string) string {
	k := strings.ToLower(key)
	if strings.Contains(k, "email") || strings.Contains(k, "target") {
		return RedactEmail(val)
	}
	return emailPattern.ReplaceAllStringFunc(val, RedactEmail)
}
