package site

import (
	"path/filepath"
	"testing"

	"github.com/zduu/star-auto/internal/config"
)

func TestProfileByName(t *testing.T) {
	p, err := ProfileByName("discourse")
	if err != nil {
		t.Fatalf("ProfileByName(discourse) error = %v", err)
	}
	if len(p.TopicSelectors) == 0 {
		t.Error("discourse profile has no topic selectors")
	}
	if len(p.LikeSelectors) == 0 {
		t.Error("discourse profile has no like selectors")
	}
	if len(p.LoggedInSelectors) == 0 || len(p.LoggedOutSelectors) == 0 {
		t.Error("discourse profile has no login state selectors")
	}
	if p.TopicSelectors[0] != "a.title" {
		t.Errorf("first topic selector = %q, want %q", p.TopicSelectors[0], "a.title")
	}
}

func TestProfileByNameUnknown(t *testing.T) {
	if _, err := ProfileByName("phpbb"); err == nil {
		t.Error("ProfileByName(phpbb) expected error, got nil")
	}
}

func TestResolveDefaults(t *testing.T) {
	sc := config.SiteConfig{
		Name:    "水源社区",
		BaseURL: "https://shuiyuan.sjtu.edu.cn/",
	}

	r, err := Resolve("shuiyuan", sc, "/data")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if r.BaseURL != "https://shuiyuan.sjtu.edu.cn" {
		t.Errorf("BaseURL = %q, trailing slash not trimmed", r.BaseURL)
	}
	want := filepath.Join("/data", "profiles", "chrome_user_data_shuiyuan")
	if r.UserDataDir != want {
		t.Errorf("UserDataDir = %q, want %q", r.UserDataDir, want)
	}
	if len(r.TopicSelectors) == 0 {
		t.Error("resolved site has no topic selectors")
	}
}

func TestResolveOverrides(t *testing.T) {
	sc := config.SiteConfig{
		BaseURL:        "https://forum.example.com",
		UserDataDir:    "/elsewhere/profile",
		LikeSelectors:  []string{".custom-like"},
		TopicSelectors: []string{".custom-topic a"},
	}

	r, err := Resolve("example", sc, "/data")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if r.UserDataDir != "/elsewhere/profile" {
		t.Errorf("UserDataDir = %q, override ignored", r.UserDataDir)
	}
	if len(r.LikeSelectors) != 1 || r.LikeSelectors[0] != ".custom-like" {
		t.Errorf("LikeSelectors = %v, override ignored", r.LikeSelectors)
	}
	if len(r.TopicSelectors) != 1 || r.TopicSelectors[0] != ".custom-topic a" {
		t.Errorf("TopicSelectors = %v, override ignored", r.TopicSelectors)
	}
	if r.Name != "example" {
		t.Errorf("Name = %q, want key fallback %q", r.Name, "example")
	}
}

func TestResolveSSOHostFromLoginURL(t *testing.T) {
	tests := []struct {
		name     string
		loginURL string
		want     []string
	}{
		{
			name:     "foreign login host becomes sso host",
			loginURL: "https://jaccount.sjtu.edu.cn",
			want:     []string{"jaccount.sjtu.edu.cn"},
		},
		{
			name:     "same host login adds nothing",
			loginURL: "https://shuiyuan.sjtu.edu.cn/login",
			want:     nil,
		},
		{
			name:     "no login url adds nothing",
			loginURL: "",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := config.SiteConfig{
				BaseURL:  "https://shuiyuan.sjtu.edu.cn",
				LoginURL: tt.loginURL,
			}
			r, err := Resolve("shuiyuan", sc, "/data")
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if len(r.SSOHosts) != len(tt.want) {
				t.Fatalf("SSOHosts = %v, want %v", r.SSOHosts, tt.want)
			}
			for i := range tt.want {
				if r.SSOHosts[i] != tt.want[i] {
					t.Errorf("SSOHosts[%d] = %q, want %q", i, r.SSOHosts[i], tt.want[i])
				}
			}
		})
	}
}

func TestResolveNoBaseURL(t *testing.T) {
	if _, err := Resolve("broken", config.SiteConfig{}, "/data"); err == nil {
		t.Error("Resolve() with empty base URL expected error, got nil")
	}
}
