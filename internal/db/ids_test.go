package db

import "testing"

func TestCanonicalID(t *testing.T) {
	const canonical = "123e4567-e89b-12d3-a456-426614174000"
	cases := map[string]bool{
		canonical:                                true,
		"urn:uuid:" + canonical:                  true,
		"{" + canonical + "}":                    true,
		"123E4567-E89B-12D3-A456-426614174000":   true,
		"123e4567e89b12d3a456426614174000":       true,
		" " + canonical + " ":                    true,
		"not-a-uuid":                             false,
		"":                                       false,
		"urn:uuid:123e4567-e89b-12d3-a456-42661": false,
	}
	for raw, ok := range cases {
		got, gotOK := CanonicalID(raw)
		if gotOK != ok {
			t.Fatalf("CanonicalID(%q) ok = %v, want %v", raw, gotOK, ok)
		}
		if ok && got != canonical {
			t.Fatalf("CanonicalID(%q) = %q, want %q", raw, got, canonical)
		}
		if !ok && got != "" {
			t.Fatalf("CanonicalID(%q) = %q, want empty", raw, got)
		}
	}
}
