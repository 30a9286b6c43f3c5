package engine

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		raw     string
		wantKey string
		wantOK  bool
	}{
		{raw: "8.8.8.8", wantKey: "8.8.8.8", wantOK: true},
		{raw: "  1.1.1.1\t", wantKey: "1.1.1.1", wantOK: true},
		{raw: "2001:db8::1", wantKey: "2001:db8::1", wantOK: true},
		{raw: "2001:DB8::1", wantKey: "2001:DB8::1", wantOK: true},
		{raw: "::ffff:192.0.2.1", wantKey: "::ffff:192.0.2.1", wantOK: true},
		{raw: "999.1.1.1"},
		{raw: ""},
		{raw: "   "},
		{raw: "not-an-ip"},
		{raw: "example.com"},
		{raw: "10.0.0.0/8"},
		{raw: "010.1.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			key, addr, ok := Validate(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("Validate(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if key != tt.wantKey {
				t.Errorf("Validate(%q) key = %q, want %q", tt.raw, key, tt.wantKey)
			}
			if ok && !addr.IsValid() {
				t.Errorf("Validate(%q) returned invalid addr", tt.raw)
			}
		})
	}
}

func TestDedupe(t *testing.T) {
	lines := []string{"8.8.8.8", "bad", " 8.8.8.8 ", "1.1.1.1", "2001:db8::1", "2001:DB8::1"}

	p := dedupe(lines)

	if len(p.keys) != len(lines) {
		t.Fatalf("expected %d keys, got %d", len(lines), len(p.keys))
	}
	wantKeys := []string{"8.8.8.8", "", "8.8.8.8", "1.1.1.1", "2001:db8::1", "2001:DB8::1"}
	for i, want := range wantKeys {
		if p.keys[i] != want {
			t.Errorf("line %d: expected key %q, got %q", i, want, p.keys[i])
		}
	}
	// Textually distinct spellings stay distinct keys.
	if len(p.unique) != 4 {
		t.Errorf("expected 4 unique keys, got %d", len(p.unique))
	}
}
