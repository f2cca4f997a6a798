package wire

import "strings"

// tokenFromHeader parses an Authorization header value of the form
// `Snowflake Token="xxx"` or `Bearer xxx` and returns the token, or "" if
// neither form matches.
func tokenFromHeader(auth string) string {
	auth = strings.TrimSpace(auth)
	if auth == "" {
		return ""
	}

	if len(auth) >= 10 && strings.EqualFold(auth[:10], "Snowflake ") {
		rest := auth[10:]
		if strings.HasPrefix(rest, "Token=\"") && strings.HasSuffix(rest, "\"") && len(rest) >= 8 {
			return rest[7 : len(rest)-1]
		}
		if strings.HasPrefix(rest, "Token=") {
			return rest[6:]
		}
	}

	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}

	return ""
}
