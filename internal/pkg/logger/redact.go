package logger

import "strings"

// RedactEmail masks the local part of an address, keeping its first two
// characters when it is longer than two: "pat.lee@acme.io" → "pa***@acme.io",
// "al@acme.io" → "***@acme.io". The domain stays readable. Anything that is
// not a single address is fully masked.
func RedactEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return "***@***"
	}
	local, domain := []rune(email[:at]), email[at+1:]
	if len(local) > 2 {
		return string(local[:2]) + "***@" + domain
	}
	return "***@" + domain
}
