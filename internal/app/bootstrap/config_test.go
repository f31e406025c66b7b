package bootstrap

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "organization_master",
		JWTSecret:     devSecret,
		JWTExpiration: 30 * time.Minute,
		CORSOrigins:   []string{"*"},
	}
}

func TestValidateConfig(t *testing.T) {
	strong := strings.Repeat("s", minProdSecretLen)

	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"dev defaults", "dev", func(*AppConfig) {}, false},
		{"empty uri", "dev", func(c *AppConfig) { c.MongoURI = "" }, true},
		{"empty database", "dev", func(c *AppConfig) { c.MongoDatabase = " " }, true},
		{"zero ttl", "dev", func(c *AppConfig) { c.JWTExpiration = 0 }, true},
		{"empty secret", "dev", func(c *AppConfig) { c.JWTSecret = "" }, true},
		{"negative rate", "dev", func(c *AppConfig) { c.LoginRateIP = -1 }, true},
		{"prod default secret", "prod", func(*AppConfig) {}, true},
		{"prod short secret", "prod", func(c *AppConfig) { c.JWTSecret = "short" }, true},
		{"prod strong secret", "prod", func(c *AppConfig) { c.JWTSecret = strong }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: tt.env}, cfg, zap.NewNop())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitOrigins(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"*", []string{"*"}},
		{"", []string{"*"}},
		{" https://a.example , ,https://b.example", []string{"https://a.example", "https://b.example"}},
	}
	for _, tt := range tests {
		if got := splitOrigins(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitOrigins(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestCORSOptions_CredentialsOnlyWithExplicitOrigins(t *testing.T) {
	if corsOptions([]string{"*"}).AllowCredentials {
		t.Error("wildcard origins must not allow credentials")
	}
	if !corsOptions([]string{"https://a.example"}).AllowCredentials {
		t.Error("explicit origins should allow credentials")
	}
}
