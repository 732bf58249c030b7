package handler

import "testing"

func TestOriginMatchesDomain(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		domain string
		want   bool
	}{
		{"exact", "https://example.com", "example.com", true},
		{"origin has www", "https://www.example.com", "example.com", true},
		{"domain has www", "https://example.com", "www.example.com", true},
		{"both www", "https://www.example.com", "www.example.com", true},
		{"scheme and port stripped", "http://example.com:8080", "example.com", true},
		{"case insensitive", "https://Example.COM", "example.com", true},
		{"different host", "https://evil.com", "example.com", false},
		{"subdomain is not www", "https://blog.example.com", "example.com", false},
		{"suffix attack", "https://example.com.evil.com", "example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := originMatchesDomain(tt.origin, tt.domain); got != tt.want {
				t.Errorf("originMatchesDomain(%q, %q) = %v, want %v", tt.origin, tt.domain, got, tt.want)
			}
		})
	}
}
