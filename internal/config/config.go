package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"radsafe-dashboard/internal/models"

	"github.com/spf13/cast"
)

type Config struct {
	BindAddr       string // e.g. ":8001"
	Users          map[string]string
	SessionTTL     time.Duration // idle time before a session is torn down
	MaxUploadBytes int64
	MaxRows        int
	MaxImagePixels int64
	AllowedOrigins []string
	LogFile        string
	LogLevel       string
	Facts          models.Facts
}

// FromEnv reads configuration from the environment. Malformed values fall
// back to defaults; only an unreadable or invalid users file is an error.
func FromEnv() (Config, error) {
	bind := os.Getenv("RADSAFE_BIND_ADDR")
	if bind == "" {
		if port := os.Getenv("PORT"); port != "" {
			bind = ":" + port
		} else {
			bind = ":8001"
		}
	}

	ttl := 30 * time.Minute
	if s := os.Getenv("RADSAFE_SESSION_TTL"); s != "" {
		if d, err := cast.ToDurationE(s); err == nil && d > 0 {
			ttl = d
		}
	}

	maxMB := 32
	if s := os.Getenv("RADSAFE_MAX_UPLOAD_MB"); s != "" {
		if n, err := cast.ToIntE(s); err == nil && n > 0 {
			maxMB = n
		}
	}

	maxRows := 10000
	if s := os.Getenv("RADSAFE_MAX_ROWS"); s != "" {
		if n, err := cast.ToIntE(s); err == nil && n > 0 {
			maxRows = n
		}
	}

	maxMP := 40
	if s := os.Getenv("RADSAFE_MAX_IMAGE_MP"); s != "" {
		if n, err := cast.ToIntE(s); err == nil && n > 0 {
			maxMP = n
		}
	}

	origins := []string{"http://localhost:3000"}
	if s := os.Getenv("RADSAFE_ALLOWED_ORIGINS"); s != "" {
		origins = splitList(s)
	}

	users, err := loadUsers()
	if err != nil {
		return Config{}, err
	}

	return Config{
		BindAddr:       bind,
		Users:          users,
		SessionTTL:     ttl,
		MaxUploadBytes: int64(maxMB) << 20,
		MaxRows:        maxRows,
		MaxImagePixels: int64(maxMP) * 1_000_000,
		AllowedOrigins: origins,
		LogFile:        os.Getenv("RADSAFE_LOGFILE"),
		LogLevel:       envOr("RADSAFE_LOG_LEVEL", "info"),
		Facts: models.Facts{
			DocumentNo:        envOr("RADSAFE_DOC_NO", "HSC-NM-RSM-001"),
			Version:           envOr("RADSAFE_DOC_VERSION", "2026 – Rev. 1"),
			Authority:         envOr("RADSAFE_AUTHORITY", "RPD License No. 1/2007"),
			LicenseValidUntil: envOr("RADSAFE_LICENSE_VALID_UNTIL", "05 June 2027"),
			ResponsiblePerson: envOr("RADSAFE_RESPONSIBLE_PERSON", "Radiation Protection Officer"),
		},
	}, nil
}

// loadUsers decodes a {"user":"password"} JSON object from RADSAFE_USERS,
// or from the file named by RADSAFE_USERS_FILE
func loadUsers() (map[string]string, error) {
	raw := os.Getenv("RADSAFE_USERS")
	if path := os.Getenv("RADSAFE_USERS_FILE"); raw == "" && path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read users file: %w", err)
		}
		raw = string(b)
	}
	if strings.TrimSpace(raw) == "" {
		return map[string]string{}, nil
	}
	users, err := cast.ToStringMapStringE(raw)
	if err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
