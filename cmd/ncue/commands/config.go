package commands

import (
	"fmt"
	"ncue-api/internal/components/telemetry"
	"ncue-api/internal/portal"
	"ncue-api/internal/watcher"
	"time"
)

type RateLimitConfig struct {
	PerSecond float64 `json:"per_second"`
	Burst     int     `json:"burst"`
}

type NotifyConfig struct {
	Smtp *watcher.SmtpConfig `json:"smtp"`
}

type WatchConfig struct {
	// Schedule is a cron spec, it defaults to every 5 minutes.
	Schedule   string       `json:"schedule"`
	Categories []string     `json:"categories"`
	Keywords   []string     `json:"keywords"`
	Similarity float64      `json:"similarity"`
	Database   string       `json:"database"`
	Notify     NotifyConfig `json:"notify"`
}

type Config struct {
	BaseUrl           string           `json:"base_url"`
	UserId            string           `json:"user_id"`
	Password          string           `json:"password"`
	AutoRelogin       *bool            `json:"auto_relogin"`
	TimeoutSeconds    int              `json:"timeout_seconds"`
	RateLimit         RateLimitConfig  `json:"rate_limit"`
	BypassCloudflare  bool             `json:"bypass_cloudflare"`
	SignupDisplayName string           `json:"signup_display_name"`
	DumpDir           string           `json:"dump_dir"`
	Telemetry         telemetry.Config `json:"telemetry"`
	Watch             WatchConfig      `json:"watch"`
}

const (
	default_watch_schedule = "*/5 * * * *"
	default_watch_database = "ncue-watch.db"
)

func (c Config) ClientOptions() portal.ClientOptions {
	return portal.ClientOptions{
		BaseUrl:           c.BaseUrl,
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
		RequestsPerSecond: c.RateLimit.PerSecond,
		Burst:             c.RateLimit.Burst,
		BypassCloudflare:  c.BypassCloudflare,
		SignupDisplayName: c.SignupDisplayName,
		DumpDir:           c.DumpDir,
	}
}

// LoginRequest logs in with the configured credentials, they are remembered
// so expired sessions can be renewed. Auto relogin is on unless disabled.
func (c Config) LoginRequest() portal.LoginRequest {
	autoRelogin := true
	if c.AutoRelogin != nil {
		autoRelogin = *c.AutoRelogin
	}
	return portal.LoginRequest{
		UserId:      c.UserId,
		Password:    c.Password,
		Remember:    true,
		AutoRelogin: &autoRelogin,
	}
}

// WatcherOptions resolves the watch section, notifier included.
func (c Config) WatcherOptions() (watcher.Options, error) {
	var categories []portal.Category
	for _, name := range c.Watch.Categories {
		category, err := portal.ParseCategory(name)
		if err != nil {
			return watcher.Options{}, fmt.Errorf("watch.categories: %w", err)
		}
		categories = append(categories, category)
	}

	opts := watcher.Options{
		UserId:     c.UserId,
		Categories: categories,
		Keywords:   c.Watch.Keywords,
		Similarity: c.Watch.Similarity,
	}
	if c.Watch.Notify.Smtp != nil {
		opts.Notifier = watcher.NewEmailNotifier(*c.Watch.Notify.Smtp)
	}
	return opts, nil
}

func (c Config) WatchSchedule() string {
	if c.Watch.Schedule == "" {
		return default_watch_schedule
	}
	return c.Watch.Schedule
}

func (c Config) WatchDatabase() string {
	if c.Watch.Database == "" {
		return default_watch_database
	}
	return c.Watch.Database
}
