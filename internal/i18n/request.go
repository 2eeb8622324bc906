package i18n

import (
	"context"
	"log"
	"strings"
	"time"
)

// RequestMeta carries the load telemetry attached to a resolved config.
type RequestMeta struct {
	LoadTime  time.Duration `json:"loadTime"`
	CacheUsed bool          `json:"cacheUsed"`
	Timestamp time.Time     `json:"timestamp"`
	Error     bool          `json:"error,omitempty"`
}

// RequestConfig is everything the rendering layer needs to localize one
// request. It is always usable: even after a load failure it carries a valid
// locale, time zone, and formats.
type RequestConfig struct {
	Locale   string      `json:"locale"`
	Messages Messages    `json:"messages"`
	TimeZone string      `json:"timeZone"`
	Formats  Formats     `json:"formats"`
	Metadata RequestMeta `json:"metadata"`
}

// ResolverConfig holds the locale topology the resolver works from.
type ResolverConfig struct {
	SupportedLocales []string
	DefaultLocale    string
	TimeZones        map[string]string // locale -> IANA zone
}

// Resolver produces per-request locale configuration backed by the
// translation cache.
type Resolver struct {
	cache     *Cache
	supported map[string]bool
	fallback  string
	timezones map[string]string
	now       func() time.Time
}

// defaultTimeZones is used for locales missing from the configured table.
var defaultTimeZones = map[string]string{
	"en": "UTC",
	"zh": "Asia/Shanghai",
}

// NewResolver creates a resolver over cache.
func NewResolver(cache *Cache, conf ResolverConfig) *Resolver {
	supported := make(map[string]bool, len(conf.SupportedLocales))
	for _, l := range conf.SupportedLocales {
		supported[l] = true
	}
	fallback := conf.DefaultLocale
	if fallback == "" {
		fallback = "en"
	}
	timezones := conf.TimeZones
	if timezones == nil {
		timezones = defaultTimeZones
	}
	return &Resolver{
		cache:     cache,
		supported: supported,
		fallback:  fallback,
		timezones: timezones,
		now:       time.Now,
	}
}

// Resolve returns the request configuration for any candidate locale string.
// It never fails: unsupported input falls back to the default locale, and a
// message-load failure yields empty messages with Metadata.Error set so
// rendering can degrade to key-fallback text.
func (r *Resolver) Resolve(ctx context.Context, requested string) RequestConfig {
	locale := r.Normalize(requested)

	cfg := RequestConfig{
		Locale:   locale,
		TimeZone: r.timeZoneFor(locale),
		Formats:  FormatsFor(locale),
	}

	messages, meta, err := r.cache.Get(ctx, locale)
	cfg.Metadata = RequestMeta{
		LoadTime:  meta.LoadTime,
		CacheUsed: meta.CacheUsed,
		Timestamp: r.now(),
	}
	if err != nil {
		log.Printf("i18n: message load failed for %q, serving fallback config: %v", locale, err)
		cfg.Messages = Messages{}
		cfg.Metadata.Error = true
		return cfg
	}
	cfg.Messages = messages
	return cfg
}

// Normalize maps any candidate string to a supported locale. A region
// qualifier is stripped before matching ("zh-CN" resolves to "zh").
func (r *Resolver) Normalize(requested string) string {
	candidate := strings.ToLower(strings.TrimSpace(requested))
	if r.supported[candidate] {
		return candidate
	}
	if base, _, ok := strings.Cut(candidate, "-"); ok && r.supported[base] {
		return base
	}
	return r.fallback
}

func (r *Resolver) timeZoneFor(locale string) string {
	if tz, ok := r.timezones[locale]; ok {
		return tz
	}
	if tz, ok := defaultTimeZones[locale]; ok {
		return tz
	}
	return "UTC"
}
