package main

import (
	"encoding/json"
	"testing"
)

func TestHealthBodyEscapesVersion(t *testing.T) {
	cases := []string{
		"dev",
		`v1.2.3 ("nightly")`,
		"a\\b\n",
	}
	for _, ver := range cases {
		var got map[string]string
		if err := json.Unmarshal(healthBody(ver), &got); err != nil {
			t.Fatalf("body for version %q is not valid JSON: %v", ver, err)
		}
		if got["status"] != "ok" || got["version"] != ver {
			t.Fatalf("unexpected body for version %q: %v", ver, got)
		}
	}
}
