package utils

import (
	"net/url"
	"regexp"
)

var dsnCredRe = regexp.MustCompile(`(://[^:/@]+):[^@]+@`)

// MaskDSN hides the password in a connection URL so it can be logged.
// Input that does not parse as a URL is masked with a regex fallback.
func MaskDSN(dsn string) string {
	if dsn == "" {
		return ""
	}

	u, err := url.Parse(dsn)
	if err == nil && u.User != nil {
		if _, has := u.User.Password(); has {
			u.User = url.UserPassword(u.User.Username(), "*****")
		}
		return u.String()
	}

	return dsnCredRe.ReplaceAllString(dsn, "$1:*****@")
}
