package main

import (
	"time"

	"github.com/sitepulse/pulse/internal/model"
)

const (
	defaultBindHost            = "127.0.0.1"
	defaultTCPPort             = 4000
	defaultAPIPort             = 3000
	defaultMuxBufferSize       = DefaultMuxBuffer
	defaultQueryTimeout        = 30 * time.Second
	defaultMaxConcurrentReads  = 8
	defaultInsertBatchSize     = 500
	defaultInsertFlushInterval = 100 * time.Millisecond
	defaultInsertFlushQueue    = 64
	defaultSampleRetention     = 30 // days, 0 = disabled
	defaultBaselineMaxAgeDays  = 7
	defaultBaselineMinGapHours = 24
	defaultCleanupSchedule     = "@hourly"
	defaultBackupInterval      = 6 * time.Hour
	defaultBackupKeepLast      = 24
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	Host                string        `mapstructure:"host"`
	DBPath              string        `mapstructure:"db-path"`
	QueryTimeout        time.Duration `mapstructure:"query-timeout"`
	MaxConcurrentReads  int           `mapstructure:"max-concurrent-queries"`
	InsertBatchSize     int           `mapstructure:"insert-batch-size"`
	InsertFlushInterval time.Duration `mapstructure:"insert-flush-interval"`
	InsertFlushQueue    int           `mapstructure:"insert-flush-queue-size"`
	JournalEnabled      bool          `mapstructure:"journal-enabled"`
	JournalPath         string        `mapstructure:"journal-path"`
	SampleRetention     int           `mapstructure:"sample-retention"`

	TCPEnabled    bool   `mapstructure:"tcp-enabled"`
	TCPPort       int    `mapstructure:"tcp-port"`
	TCPAddr       string `mapstructure:"tcp-addr"`
	MuxBufferSize int    `mapstructure:"mux-buffer-size"`
	APIEnabled    bool   `mapstructure:"api-enabled"`
	APIPort       int    `mapstructure:"api-port"`
	APIAddr       string `mapstructure:"api-addr"`

	LocalesDir       string   `mapstructure:"locales-dir"`
	DefaultLocale    string   `mapstructure:"default-locale"`
	SupportedLocales []string `mapstructure:"supported-locales"`

	BaselinePath        string `mapstructure:"baseline-path"`
	MaxBaselines        int    `mapstructure:"max-baselines"`
	BaselineMaxAgeDays  int    `mapstructure:"baseline-max-age"`
	BaselineMinHours    int    `mapstructure:"baseline-min-interval"`
	CleanupSchedule     string `mapstructure:"cleanup-schedule"`
	HistoryPath         string `mapstructure:"history-path"`
	HistoryMaxRecords   int    `mapstructure:"history-max-records"`
	HistoryMaxAgeDays   int    `mapstructure:"history-max-age"`

	AlertsEnabled bool   `mapstructure:"alerts-enabled"`
	SlackToken    string `mapstructure:"slack-token"`
	SlackChannel  string `mapstructure:"slack-channel"`

	BackupEnabled        bool          `mapstructure:"backup-enabled"`
	BackupInterval       time.Duration `mapstructure:"backup-interval"`
	BackupLocalDir       string        `mapstructure:"backup-local-dir"`
	BackupKeepLast       int           `mapstructure:"backup-keep-last"`
	BackupBucketURL      string        `mapstructure:"backup-bucket-url"`
	BackupS3Endpoint     string        `mapstructure:"backup-s3-endpoint"`
	BackupS3Region       string        `mapstructure:"backup-s3-region"`
	BackupS3AccessKey    string        `mapstructure:"backup-s3-access-key"`
	BackupS3SecretKey    string        `mapstructure:"backup-s3-secret-key"`
	BackupS3SessionToken string        `mapstructure:"backup-s3-session-token"`
	BackupS3UseSSL       bool          `mapstructure:"backup-s3-use-ssl"`

	ConfigPath string `mapstructure:"-"` // not from config file
}

// baselineMaxAge converts the day-granular config value to a duration.
func (c appConfig) baselineMaxAge() time.Duration {
	if c.BaselineMaxAgeDays <= 0 {
		return model.DefaultBaselineMaxAge
	}
	return time.Duration(c.BaselineMaxAgeDays) * 24 * time.Hour
}

func (c appConfig) baselineMinGap() time.Duration {
	if c.BaselineMinHours <= 0 {
		return model.DefaultBaselineMinGap
	}
	return time.Duration(c.BaselineMinHours) * time.Hour
}

func (c appConfig) historyMaxAge() time.Duration {
	if c.HistoryMaxAgeDays <= 0 {
		return model.DefaultHistoryMaxAge
	}
	return time.Duration(c.HistoryMaxAgeDays) * 24 * time.Hour
}
