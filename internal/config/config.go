// Package config provides layered configuration loading: built-in defaults,
// an optional YAML file, then environment variable overrides.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shineum/civicmail/internal/account"
	"github.com/shineum/civicmail/internal/template"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds the complete application configuration.
type Config struct {
	Recipients RecipientsConfig  `yaml:"recipients"`
	Location   LocationConfig    `yaml:"location"`
	Issue      IssueConfig       `yaml:"issue"`
	Legal      LegalConfig       `yaml:"legal"`
	AntiSpam   AntiSpamConfig    `yaml:"anti_spam"`
	Media      MediaConfig       `yaml:"media"`
	Rotation   RotationConfig    `yaml:"rotation"`
	Schedule   ScheduleConfig    `yaml:"schedule"`
	Message    MessageConfig     `yaml:"message"`
	Services   []account.Service `yaml:"services"`
	Templates  []template.Record `yaml:"templates"`
	Delivery   DeliveryConfig    `yaml:"delivery"`
	Report     ReportConfig      `yaml:"report"`
	Logging    LoggingConfig     `yaml:"logging"`
}

// RecipientsConfig holds the fixed recipient sets.
type RecipientsConfig struct {
	To  []string `yaml:"to"`
	Cc  []string `yaml:"cc"`
	Bcc []string `yaml:"bcc"`
}

// LocationConfig describes where the reported issue is.
type LocationConfig struct {
	AreaName    string `yaml:"area_name"`
	City        string `yaml:"city"`
	Province    string `yaml:"province"`
	Country     string `yaml:"country"`
	Coordinates string `yaml:"coordinates"`
}

// IssueConfig describes the reported issue.
type IssueConfig struct {
	PrimaryIssue       string   `yaml:"primary_issue"`
	SpecificProblems   []string `yaml:"specific_problems"`
	AffectedPopulation string   `yaml:"affected_population"`
	Duration           string   `yaml:"duration"`
}

// LegalConfig holds the legal citations quoted by the templates.
type LegalConfig struct {
	ConstitutionalArticles []string `yaml:"constitutional_articles"`
	RelevantLaws           []string `yaml:"relevant_laws"`
	EscalationPath         []string `yaml:"escalation_path"`
}

// AntiSpamConfig bounds the random pause after each dispatch, in seconds.
type AntiSpamConfig struct {
	MinDelay int `yaml:"min_delay"`
	MaxDelay int `yaml:"max_delay"`
}

// MediaConfig controls attachment discovery.
type MediaConfig struct {
	Dir        string   `yaml:"dir"`
	Extensions []string `yaml:"extensions"`
	MaxFileMB  float64  `yaml:"max_file_mb"`
	MaxTotalMB float64  `yaml:"max_total_mb"`
}

// RotationConfig maps weekdays to template candidates.
type RotationConfig struct {
	DefaultTemplate int       `yaml:"default_template"`
	SendEveryDay    bool      `yaml:"send_every_day"`
	Days            []DayRule `yaml:"days"`
}

// DayRule lists the templates sent on one weekday.
type DayRule struct {
	Weekday   string `yaml:"weekday"`
	Templates []int  `yaml:"templates"`
}

// ScheduleConfig sets the local daily send time.
type ScheduleConfig struct {
	Time     string `yaml:"time"`
	Timezone string `yaml:"timezone"`
}

// MessageConfig holds message formatting settings.
type MessageConfig struct {
	FromName        string `yaml:"from_name"`
	ReferencePrefix string `yaml:"reference_prefix"`
	NoticePrefix    string `yaml:"notice_prefix"`
	DateFormat      string `yaml:"date_format"`
	TimeFormat      string `yaml:"time_format"`
}

// DeliveryConfig selects and configures the outbound transport.
type DeliveryConfig struct {
	Provider string        `yaml:"provider"`
	Timeout  time.Duration `yaml:"timeout"`

	// CAFile is an optional PEM bundle trusted in addition to the system
	// roots when upgrading SMTP connections.
	CAFile string    `yaml:"ca_file"`
	SES    SESConfig `yaml:"ses"`
}

// SESConfig holds AWS SES v2 configuration.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Sender          string `yaml:"sender"`
}

// ReportConfig configures outcome publishing to NATS.
type ReportConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load loads the built-in defaults and applies environment overrides.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file layered over the
// defaults, then overrides with environment variables. Lists in the file
// replace the default lists. Returns an error if the file does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// SESConfigured returns true if the SES region and sender are set.
func (c *Config) SESConfigured() bool {
	return c.Delivery.SES.Region != "" && c.Delivery.SES.Sender != ""
}

// ReportEnabled returns true if outcome publishing is configured.
func (c *Config) ReportEnabled() bool {
	return c.Report.NATSURL != ""
}

// TemplateStore returns the configured templates, or the built-in set when
// the configuration defines none.
func (c *Config) TemplateStore() (*template.Store, error) {
	if len(c.Templates) == 0 {
		return template.Builtin(), nil
	}
	store, err := template.NewStore(c.Templates...)
	if err != nil {
		return nil, fmt.Errorf("invalid templates: %w", err)
	}
	return store, nil
}

// Catalog returns the configured mail services, or the built-in catalog.
func (c *Config) Catalog() []account.Service {
	if len(c.Services) == 0 {
		return account.DefaultCatalog()
	}
	return c.Services
}

// applyDefaults decodes the embedded defaults.
func (c *Config) applyDefaults() error {
	if err := yaml.Unmarshal(defaultsYAML, c); err != nil {
		return fmt.Errorf("failed to parse built-in defaults: %w", err)
	}
	return nil
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("MEDIA_DIR"); v != "" {
		c.Media.Dir = v
	}

	if v := os.Getenv("DELIVERY_PROVIDER"); v != "" {
		c.Delivery.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("DRY_RUN"); v != "" {
		if dry, err := strconv.ParseBool(v); err == nil && dry {
			c.Delivery.Provider = "stdout"
		}
	}
	if v := os.Getenv("SMTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Delivery.Timeout = d
		}
	}

	if v := os.Getenv("SMTP_CA_FILE"); v != "" {
		c.Delivery.CAFile = v
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.Delivery.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.Delivery.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.Delivery.SES.SecretAccessKey = v
	}
	if v := os.Getenv("SES_SENDER"); v != "" {
		c.Delivery.SES.Sender = v
	}

	if v := os.Getenv("NATS_URL"); v != "" {
		c.Report.NATSURL = v
	}
	if v := os.Getenv("NATS_SUBJECT"); v != "" {
		c.Report.Subject = v
	}

	if v := os.Getenv("SEND_EVERY_DAY"); v != "" {
		if every, err := strconv.ParseBool(v); err == nil {
			c.Rotation.SendEveryDay = every
		}
	}
	if v := os.Getenv("SCHEDULE_TIME"); v != "" {
		c.Schedule.Time = v
	}
	if v := os.Getenv("SCHEDULE_TIMEZONE"); v != "" {
		c.Schedule.Timezone = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
}
