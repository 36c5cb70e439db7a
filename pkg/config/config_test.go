package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "institute_registry", cfg.Database.Name)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 10*time.Minute, cfg.Catalog.CacheTTL)
	assert.Equal(t, 5000, cfg.Reports.ExportMaxRows)
	assert.Equal(t, "/static", cfg.Certificates.StaticPrefix)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	v.Set("CATALOG_CACHE_TTL", "not-a-duration")
	v.Set("REPORT_EXPORT_MAX_ROWS", -1)
	v.Set("CERTIFICATE_STATIC_PREFIX", "assets/")
	v.Set("CERTIFICATE_BASE_URL", "https://certs.example/")

	cfg := fromViper(v)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 10*time.Minute, cfg.Catalog.CacheTTL)
	assert.Equal(t, 5000, cfg.Reports.ExportMaxRows)
	assert.Equal(t, "/assets", cfg.Certificates.StaticPrefix)
	assert.Equal(t, "https://certs.example", cfg.Certificates.BaseURL)
}
