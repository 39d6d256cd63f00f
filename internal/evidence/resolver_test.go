package evidence

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func validConfig() ResolverConfig {
	return ResolverConfig{
		BucketName:      "accessrank-evidence",
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
		Endpoint:        "https://object-store.example.com",
	}
}

func TestNewResolver_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ResolverConfig)
		wantErr string
	}{
		{"valid", func(c *ResolverConfig) {}, ""},
		{"missing bucket", func(c *ResolverConfig) { c.BucketName = "" }, "bucket name"},
		{"missing access key", func(c *ResolverConfig) { c.AccessKeyID = "" }, "access key"},
		{"missing secret", func(c *ResolverConfig) { c.SecretAccessKey = "" }, "secret access key"},
		{"missing endpoint", func(c *ResolverConfig) { c.Endpoint = "" }, "endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			r, err := NewResolver(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("NewResolver() error = %v, want nil", err)
				}
				return
			}
			if r != nil || err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewResolver() = (%v, %v), want error containing %q", r, err, tt.wantErr)
			}
		})
	}
}

func TestNewResolver_DefaultExpiry(t *testing.T) {
	r, err := NewResolver(validConfig())
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	if r.urlExpiry != 10*time.Minute {
		t.Errorf("default expiry = %v, want 10m", r.urlExpiry)
	}

	cfg := validConfig()
	cfg.URLExpiryMinutes = 30
	r, err = NewResolver(cfg)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	if r.urlExpiry != 30*time.Minute {
		t.Errorf("configured expiry = %v, want 30m", r.urlExpiry)
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		ok   bool
	}{
		{"well-formed", "evidence/venue-1/ramp.jpg", true},
		{"nested path", "evidence/venue-1/2025/entrance.png", true},
		{"empty", "", false},
		{"wrong prefix", "uploads/venue-1/ramp.jpg", false},
		{"prefix only traversal", "evidence/../secrets.txt", false},
		{"embedded traversal", "evidence/venue-1/../../secrets.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.ok && err != nil {
				t.Errorf("ValidateKey(%q) = %v, want nil", tt.key, err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidKey) {
				t.Errorf("ValidateKey(%q) = %v, want ErrInvalidKey", tt.key, err)
			}
		})
	}
}

func TestResolve_SignedURL(t *testing.T) {
	r, err := NewResolver(validConfig())
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	fixed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	r.timeNow = func() time.Time { return fixed }

	signed, err := r.Resolve(context.Background(), "evidence/venue-1/ramp.jpg")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if signed.Key != "evidence/venue-1/ramp.jpg" {
		t.Errorf("Key = %q", signed.Key)
	}
	if !strings.Contains(signed.URL, "accessrank-evidence") || !strings.Contains(signed.URL, "X-Amz-Signature") {
		t.Errorf("URL does not look presigned: %q", signed.URL)
	}
	if !signed.ExpiresAt.Equal(fixed.Add(10 * time.Minute)) {
		t.Errorf("ExpiresAt = %v, want %v", signed.ExpiresAt, fixed.Add(10*time.Minute))
	}
}

func TestResolve_RejectsInvalidKey(t *testing.T) {
	r, err := NewResolver(validConfig())
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	if _, err := r.Resolve(context.Background(), "evidence/../etc/passwd"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestResolveAll_SkipsInvalidKeys(t *testing.T) {
	r, err := NewResolver(validConfig())
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}

	urls, err := r.ResolveAll(context.Background(), []string{
		"evidence/venue-1/ramp.jpg",
		"uploads/not-evidence.jpg",
		"evidence/venue-1/toilet.jpg",
		"",
	})
	if err != nil {
		t.Fatalf("ResolveAll() error = %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("expected 2 signed URLs, got %d", len(urls))
	}
	if urls[0].Key != "evidence/venue-1/ramp.jpg" || urls[1].Key != "evidence/venue-1/toilet.jpg" {
		t.Errorf("unexpected keys: %+v", urls)
	}
}
