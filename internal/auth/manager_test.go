package auth

import (
	"testing"

	"github.com/zduu/star-auto/internal/site"
)

func TestOnSSOHost(t *testing.T) {
	m := &Manager{site: &site.Resolved{
		BaseURL:  "https://shuiyuan.sjtu.edu.cn",
		SSOHosts: []string{"jaccount.sjtu.edu.cn", ""},
	}}

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"sso login page", "https://jaccount.sjtu.edu.cn/jaccount/jalogin?sid=x", true},
		{"forum page", "https://shuiyuan.sjtu.edu.cn/t/topic/123", false},
		{"empty url", "", false},
		{"empty host entry ignored", "https://example.com/", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.onSSOHost(tt.url); got != tt.want {
				t.Errorf("onSSOHost(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsSessionCookie(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"_t", true},
		{"_forum_session", true},
		{"_ga", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isSessionCookie(tt.name); got != tt.want {
			t.Errorf("isSessionCookie(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
