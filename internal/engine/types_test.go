package engine

import "testing"

func TestMapEngineType(t *testing.T) {
	testCases := []struct {
		duckType string
		want     string
	}{
		{"VARCHAR", TypeText},
		{"INTEGER", TypeFixed},
		{"BIGINT", TypeFixed},
		{"DECIMAL(18,4)", TypeFixed},
		{"DOUBLE", TypeReal},
		{"BOOLEAN", TypeBoolean},
		{"DATE", TypeDate},
		{"TIMESTAMP", TypeTimestampNTZ},
		{"BLOB", TypeBinary},
		{"JSON", TypeVariant},
		{"STRUCT", TypeObject},
		{"LIST", TypeArray},
		{"SOME_UNKNOWN_TYPE", TypeText},
	}
	for _, tc := range testCases {
		t.Run(tc.duckType, func(t *testing.T) {
			got := mapEngineType(tc.duckType)
			if got != tc.want {
				t.Errorf("mapEngineType(%q) = %q, want %q", tc.duckType, got, tc.want)
			}
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	testCases := []struct {
		name string
		want string
	}{
		{`T`, `"T"`},
		{`A"B`, `"A""B"`},
		{`TESTDB.PUBLIC.T`, `"TESTDB.PUBLIC.T"`},
	}
	for _, tc := range testCases {
		if got := quoteIdent(tc.name); got != tc.want {
			t.Errorf("quoteIdent(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
