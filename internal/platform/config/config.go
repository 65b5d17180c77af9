package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	JWTSecret string
	JWTTTL    time.Duration

	PermissionCacheTTL time.Duration
	IdempotencyTTL     time.Duration

	// BootstrapAdminIDs may grant and revoke roles before any assignment
	// exists in the database. Set it for the first deployment, then clear
	// it once real admins hold user.grant_role.
	BootstrapAdminIDs []string

	// Workday window used for clamped attendance summaries and auto-close.
	WorkdayStartHour int
	WorkdayEndHour   int

	EnableAutoClose          bool
	EnableAssignmentSweeper  bool
	EnablePolicyEventConsume bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "crewdeck"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-only-secret"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		JWTSecret: secret,
		JWTTTL:    envDuration("JWT_TTL", 24*time.Hour),

		PermissionCacheTTL: envDuration("PERMISSION_CACHE_TTL", 5*time.Minute),
		IdempotencyTTL:     envDuration("IDEMPOTENCY_TTL", 7*24*time.Hour),

		BootstrapAdminIDs: envList("BOOTSTRAP_ADMIN_IDS"),

		WorkdayStartHour: envInt("WORKDAY_START_HOUR", 8),
		WorkdayEndHour:   envInt("WORKDAY_END_HOUR", 20),

		EnableAutoClose:          envBool("ENABLE_ATTENDANCE_AUTO_CLOSE", true),
		EnableAssignmentSweeper:  envBool("ENABLE_ASSIGNMENT_SWEEPER", true),
		EnablePolicyEventConsume: envBool("ENABLE_POLICY_EVENT_CONSUMER", true),
	}, nil
}

func envList(name string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}
