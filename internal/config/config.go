package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the chat service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"chat-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"CHAT_API_PORT" envDefault:"8290"`
	LogLevel        string        `env:"CHAT_LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database
	DBPostgresqlWriteDSN string        `env:"DB_POSTGRESQL_WRITE_DSN,notEmpty"`
	DBMaxIdleConns       int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns       int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// AI responder
	AIBaseURL     string        `env:"AI_BASE_URL" envDefault:""`
	AIAPIKey      string        `env:"AI_API_KEY"`
	AIModel       string        `env:"AI_MODEL" envDefault:"gpt-4o-mini"`
	AITimeout     time.Duration `env:"AI_TIMEOUT" envDefault:"30s"`
	AITemperature float64       `env:"AI_TEMPERATURE" envDefault:"0.2"`

	// Team chat (agent notifications and presence)
	TeamChatBaseURL   string        `env:"TEAMCHAT_BASE_URL"`
	TeamChatToken     string        `env:"TEAMCHAT_TOKEN"`
	TeamChatChannelID string        `env:"TEAMCHAT_CHANNEL_ID"`
	TeamChatTimeout   time.Duration `env:"TEAMCHAT_TIMEOUT" envDefault:"10s"`

	// PHI protection
	PHIRedactionEnabled bool `env:"PHI_REDACTION_ENABLED" envDefault:"true"`

	// Conversation lifecycle
	DefaultLanguage     string        `env:"CHAT_DEFAULT_LANGUAGE" envDefault:"en"`
	ConversationTimeout time.Duration `env:"CONVERSATION_TIMEOUT" envDefault:"1h"`
	EscalationTimeout   time.Duration `env:"ESCALATION_TIMEOUT" envDefault:"15m"`
	MaxAIMessages       int           `env:"CHAT_MAX_AI_MESSAGES" envDefault:"20"`
	LoopDetectionWindow int           `env:"CHAT_LOOP_WINDOW" envDefault:"6"`
	LoopDistinctLimit   int           `env:"CHAT_LOOP_DISTINCT_LIMIT" envDefault:"2"`

	// Escalation queue
	QueueMaxSize          int           `env:"ESCALATION_QUEUE_MAX_SIZE" envDefault:"100"`
	MatchingInterval      time.Duration `env:"ESCALATION_MATCHING_INTERVAL" envDefault:"15s"`
	SLAMonitorInterval    time.Duration `env:"ESCALATION_SLA_INTERVAL" envDefault:"60s"`
	TimeoutSweepInterval  time.Duration `env:"ESCALATION_TIMEOUT_INTERVAL" envDefault:"60s"`
	AbandonSweepInterval  time.Duration `env:"CONVERSATION_ABANDON_INTERVAL" envDefault:"5m"`
	PresencePollInterval  time.Duration `env:"AGENT_PRESENCE_INTERVAL" envDefault:"60s"`
	AvgHandleTimeEstimate time.Duration `env:"ESCALATION_AVG_HANDLE_TIME" envDefault:"10m"`

	// Response SLA minutes per priority
	ResponseSLAUrgent int `env:"SLA_RESPONSE_URGENT_MINUTES" envDefault:"5"`
	ResponseSLAHigh   int `env:"SLA_RESPONSE_HIGH_MINUTES" envDefault:"10"`
	ResponseSLANormal int `env:"SLA_RESPONSE_NORMAL_MINUTES" envDefault:"15"`
	ResponseSLALow    int `env:"SLA_RESPONSE_LOW_MINUTES" envDefault:"30"`

	// Resolution SLA minutes per priority
	ResolutionSLAUrgent int `env:"SLA_RESOLUTION_URGENT_MINUTES" envDefault:"30"`
	ResolutionSLAHigh   int `env:"SLA_RESOLUTION_HIGH_MINUTES" envDefault:"60"`
	ResolutionSLANormal int `env:"SLA_RESOLUTION_NORMAL_MINUTES" envDefault:"120"`
	ResolutionSLALow    int `env:"SLA_RESOLUTION_LOW_MINUTES" envDefault:"240"`

	// Authentication
	AuthEnabled bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer  string `env:"AUTH_ISSUER"`
	AuthJWKSURL string `env:"AUTH_JWKS_URL"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.TeamChatBaseURL = strings.TrimSpace(cfg.TeamChatBaseURL)
	cfg.AIBaseURL = strings.TrimSpace(cfg.AIBaseURL)
	if cfg.QueueMaxSize <= 0 {
		cfg.QueueMaxSize = 100
	}
	if cfg.MaxAIMessages <= 0 {
		cfg.MaxAIMessages = 20
	}
	if cfg.LoopDetectionWindow <= 0 {
		cfg.LoopDetectionWindow = 6
	}
	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.AuthIssuer) == "" {
			return nil, fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthJWKSURL) == "" {
			return nil, fmt.Errorf("AUTH_JWKS_URL is required when AUTH_ENABLED is true")
		}
	}
	return cfg, nil
}

// GetDatabaseWriteDSN returns the write database connection string.
func (c *Config) GetDatabaseWriteDSN() string {
	return c.DBPostgresqlWriteDSN
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// ResponseSLAMinutes returns the response deadline in minutes for a priority name.
func (c *Config) ResponseSLAMinutes(priority string) int {
	switch priority {
	case "urgent":
		return c.ResponseSLAUrgent
	case "high":
		return c.ResponseSLAHigh
	case "low":
		return c.ResponseSLALow
	default:
		return c.ResponseSLANormal
	}
}

// ResolutionSLAMinutes returns the resolution deadline in minutes for a priority name.
func (c *Config) ResolutionSLAMinutes(priority string) int {
	switch priority {
	case "urgent":
		return c.ResolutionSLAUrgent
	case "high":
		return c.ResolutionSLAHigh
	case "low":
		return c.ResolutionSLALow
	default:
		return c.ResolutionSLANormal
	}
}
