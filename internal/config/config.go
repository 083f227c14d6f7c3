package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	v := Get(key, "")
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: invalid int key=%s value=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func GetFloat(key string, fallback float64) float64 {
	v := Get(key, "")
	if v == "" {
		return fallback
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("config: invalid float key=%s value=%q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func GetBool(key string, fallback bool) bool {
	v := Get(key, "")
	if v == "" {
		return fallback
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("config: invalid bool key=%s value=%q, using %t", key, v, fallback)
		return fallback
	}
	return b
}

// GetDuration accepts Go duration strings ("250ms") or a bare number of seconds.
func GetDuration(key string, fallback time.Duration) time.Duration {
	v := Get(key, "")
	if v == "" {
		return fallback
	}

	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}

	log.Printf("config: invalid duration key=%s value=%q, using %s", key, v, fallback)
	return fallback
}

// Typed service configuration.
type Config struct {
	Port        string
	DatabaseURL string
	DBPath      string

	ORSAPIKey      string
	ORSBaseURL     string
	ORSProfile     string
	GeocodeCountry string
	ORSRatePerSec  float64

	RedisAddr   string
	RedisGeoKey string

	LinesPath string
	SeedPath  string

	RouteStepMeters      float64
	RouteFrameInterval   time.Duration
	RouteDefaultDuration time.Duration
	SimSecondsPerTick    int
	SimTimePerTick       time.Duration
	MirrorInterval       time.Duration

	CORSAllowedOrigins []string
}

// Load reads the configuration from the environment. Call godotenv.Load first to pick up .env.
func Load() Config {
	return Config{
		Port:        Get("PORT", "8080"),
		DatabaseURL: Get("DATABASE_URL", ""),
		DBPath:      Get("DB_PATH", "data/app.db"),

		ORSAPIKey:      Get("ORS_API_KEY", ""),
		ORSBaseURL:     Get("ORS_BASE_URL", "https://api.openrouteservice.org"),
		ORSProfile:     Get("ORS_PROFILE", "foot-walking"),
		GeocodeCountry: Get("GEOCODE_COUNTRY", "DE"),
		ORSRatePerSec:  GetFloat("ORS_RATE_PER_SEC", 5),

		RedisAddr:   Get("REDIS_ADDR", ""),
		RedisGeoKey: Get("REDIS_GEO_KEY", "robots:positions"),

		LinesPath: Get("LINES_PATH", "data/kvv_lines.json"),
		SeedPath:  Get("SEED_PATH", ""),

		RouteStepMeters:      GetFloat("ROUTE_STEP_METERS", 12),
		RouteFrameInterval:   GetDuration("ROUTE_FRAME_INTERVAL", 50*time.Millisecond),
		RouteDefaultDuration: GetDuration("ROUTE_DEFAULT_DURATION", 10*time.Second),
		SimSecondsPerTick:    GetInt("SIM_SECONDS_PER_TICK", 1),
		SimTimePerTick:       GetDuration("SIM_TIME_PER_TICK", time.Minute),
		MirrorInterval:       GetDuration("MIRROR_INTERVAL", 2*time.Second),

		CORSAllowedOrigins: splitList(Get("CORS_ALLOWED_ORIGINS", "*")),
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
