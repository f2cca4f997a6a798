package wire

import "testing"

func TestTokenFromHeader(t *testing.T) {
	cases := []struct {
		name string
		auth string
		want string
	}{
		{"quoted snowflake token", `Snowflake Token="abc123"`, "abc123"},
		{"unquoted snowflake token", `Snowflake Token=abc123`, "abc123"},
		{"case-insensitive scheme", `snowflake Token="abc123"`, "abc123"},
		{"bearer token", "Bearer abc123", "abc123"},
		{"bearer case-insensitive", "bearer abc123", "abc123"},
		{"empty header", "", ""},
		{"unrecognized scheme", "Basic dXNlcjpwYXNz", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tokenFromHeader(tc.auth); got != tc.want {
				t.Errorf("tokenFromHeader(%q) = %q, want %q", tc.auth, got, tc.want)
			}
		})
	}
}
