package data

import (
	"context"
	"net/netip"
	"os"
	"testing"
)

const testMMDBPath = "../../testdata/GeoLite2-Country-Test.mmdb"

func skipIfNoMMDB(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(testMMDBPath); os.IsNotExist(err) {
		t.Skip("test MMDB file not found; download it with: curl -L -o testdata/GeoLite2-Country-Test.mmdb https://github.com/maxmind/MaxMind-DB/raw/main/test-data/GeoLite2-Country-Test.mmdb")
	}
}

func TestNewMmdbReader_Success(t *testing.T) {
	skipIfNoMMDB(t)

	reader, err := NewMmdbReader(testMMDBPath, "")
	if err != nil {
		t.Fatalf("failed to create reader: %v", err)
	}
	defer reader.Close()

	if err := reader.Ready(); err != nil {
		t.Fatalf("expected ready reader: %v", err)
	}
}

func TestNewMmdbReader_InvalidPath(t *testing.T) {
	_, err := NewMmdbReader("/nonexistent/path.mmdb", "")
	if err == nil {
		t.Fatal("expected error for invalid path")
	}
}

func TestNewMmdbReader_InvalidASNPath(t *testing.T) {
	skipIfNoMMDB(t)

	_, err := NewMmdbReader(testMMDBPath, "/nonexistent/asn.mmdb")
	if err == nil {
		t.Fatal("expected error for invalid ASN path")
	}
}

func TestMmdbReader_Lookup(t *testing.T) {
	skipIfNoMMDB(t)

	reader, err := NewMmdbReader(testMMDBPath, "")
	if err != nil {
		t.Fatalf("failed to create reader: %v", err)
	}
	defer reader.Close()

	tests := []struct {
		name       string
		ip         string
		want       string
		wantStatus string
	}{
		{
			name:       "UK IP",
			ip:         "2.125.160.216",
			want:       "United Kingdom",
			wantStatus: "success",
		},
		{
			name:       "US IP",
			ip:         "216.160.83.56",
			want:       "United States",
			wantStatus: "success",
		},
		{
			name:       "IPv6 JP",
			ip:         "2001:218::",
			want:       "Japan",
			wantStatus: "success",
		},
		{
			name:       "loopback not in database",
			ip:         "127.0.0.1",
			want:       "",
			wantStatus: "fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := reader.Lookup(context.Background(), netip.MustParseAddr(tt.ip))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Status != tt.wantStatus {
				t.Errorf("expected status %s, got %s", tt.wantStatus, rec.Status)
			}
			if rec.Country != tt.want {
				t.Errorf("expected country %q, got %q", tt.want, rec.Country)
			}
			if rec.Query != tt.ip {
				t.Errorf("expected query %s, got %s", tt.ip, rec.Query)
			}
		})
	}
}

func TestMmdbReader_LookupCanceled(t *testing.T) {
	skipIfNoMMDB(t)

	reader, err := NewMmdbReader(testMMDBPath, "")
	if err != nil {
		t.Fatalf("failed to create reader: %v", err)
	}
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := reader.Lookup(ctx, netip.MustParseAddr("2.125.160.216")); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestMmdbReader_Close(t *testing.T) {
	skipIfNoMMDB(t)

	reader, err := NewMmdbReader(testMMDBPath, "")
	if err != nil {
		t.Fatalf("failed to create reader: %v", err)
	}

	if err := reader.Close(); err != nil {
		t.Fatalf("failed to close reader: %v", err)
	}
	if err := reader.Ready(); err == nil {
		t.Fatal("expected closed reader not to be ready")
	}
}
