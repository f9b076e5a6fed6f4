package logfields

import (
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "b-1", BuildID("b-1")},
		{"Stage", KeyStage, "pages", Stage("pages")},
		{"Route", KeyRoute, "hello-world", Route("hello-world")},
		{"Title", KeyTitle, "Hello", Title("Hello")},
		{"File", KeyFile, "hello.html", File("hello.html")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Asset", KeyAsset, "css/style.css", Asset("css/style.css")},
		{"Version", KeyVersion, "1.0.1", Version("1.0.1")},
		{"Mode", KeyMode, "hash", Mode("hash")},
		{"Command", KeyCommand, "generate", Command("generate")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric & float helpers.
func TestNumericHelpers(t *testing.T) {
	if v := DurationMS(12.5); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
	if v := Count(3); v.Key != KeyCount || v.Value.Int64() != 3 {
		t.Fatalf("Count mismatch: %s=%v", v.Key, v.Value)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errTest{})
	if attr.Value.String() != "err-test" {
		t.Fatalf("Expected 'err-test', got %s", attr.Value.String())
	}
}

type errTest struct{}

func (e errTest) Error() string { return "err-test" }
