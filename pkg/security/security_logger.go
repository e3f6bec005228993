package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventType represents the type of security event
type EventType string

const (
	EventTokenRejected       EventType = "token_rejected"
	EventUnauthorizedAccess  EventType = "unauthorized_access"
	EventWebhookRejected     EventType = "webhook_rejected"
	EventProviderUnavailable EventType = "identity_provider_unavailable"
	EventAccountMerged       EventType = "account_merged"
	EventAccountDeleted      EventType = "account_deleted"
	EventRateLimitTriggered  EventType = "rate_limit_triggered"
	EventCSRFViolation       EventType = "csrf_violation"
)

// SecurityEvent represents a security-related event to be logged
type SecurityEvent struct {
	Timestamp    time.Time              `json:"timestamp"`
	Service      string                 `json:"service"`
	Environment  string                 `json:"env"`
	Level        string                 `json:"level"`
	Event        EventType              `json:"event"`
	SubjectType  string                 `json:"subject_type,omitempty"`  // "email", "ip", "subject"
	SubjectValue string                 `json:"subject_value,omitempty"` // masked or hashed
	IP           string                 `json:"ip,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	RequestID    string                 `json:"request_id,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// SecurityLogger writes security events through zap, separate from the
// application log stream.
type SecurityLogger struct {
	zapLogger   *zap.Logger
	serviceName string
	environment string
}

var (
	defaultMu     sync.RWMutex
	defaultLogger *SecurityLogger
)

// NewSecurityLogger wraps an existing zap logger. Tests pass an observer core.
func NewSecurityLogger(zl *zap.Logger, serviceName, environment string) *SecurityLogger {
	return &SecurityLogger{
		zapLogger:   zl,
		serviceName: serviceName,
		environment: environment,
	}
}

// InitSecurityLogger builds the production zap logger and installs it as the
// default.
func InitSecurityLogger(serviceName, environment string) *SecurityLogger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.MessageKey = "message"
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	zl, err := config.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		zl, _ = zap.NewProduction()
	}

	sl := NewSecurityLogger(zl, serviceName, environment)
	SetDefault(sl)
	return sl
}

func SetDefault(sl *SecurityLogger) {
	defaultMu.Lock()
	defaultLogger = sl
	defaultMu.Unlock()
}

// DefaultLogger returns the installed logger, or a no-op one.
func DefaultLogger() *SecurityLogger {
	defaultMu.RLock()
	sl := defaultLogger
	defaultMu.RUnlock()
	if sl == nil {
		return NewSecurityLogger(zap.NewNop(), "expert-backend", "development")
	}
	return sl
}

// Log logs a security event
func (sl *SecurityLogger) Log(_ context.Context, event SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Service = sl.serviceName
	event.Environment = sl.environment

	severity := GetSeverity(event.Event)
	level := severity.zapLevel()
	event.Level = level.String()

	fields := []zap.Field{
		zap.String("service", event.Service),
		zap.String("env", event.Environment),
		zap.String("event", string(event.Event)),
		zap.String("severity", string(severity)),
		zap.Time("occurred_at", event.Timestamp),
	}
	if event.SubjectType != "" {
		fields = append(fields, zap.String("subject_type", event.SubjectType))
	}
	if event.SubjectValue != "" {
		fields = append(fields, zap.String("subject_value", event.SubjectValue))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserAgent != "" {
		fields = append(fields, zap.String("user_agent", event.UserAgent))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if len(event.Details) > 0 {
		detailsJSON, _ := json.Marshal(event.Details)
		fields = append(fields, zap.String("details", string(detailsJSON)))
	}

	sl.zapLogger.Log(level, string(event.Event), fields...)
}

// LogTokenRejected logs a session token that failed verification.
func (sl *SecurityLogger) LogTokenRejected(ctx context.Context, ip, userAgent, requestID, reason string) {
	sl.Log(ctx, SecurityEvent{
		Event:     EventTokenRejected,
		IP:        ip,
		UserAgent: userAgent,
		RequestID: requestID,
		Details:   map[string]interface{}{"reason": reason},
	})
}

// LogUnauthorizedAccess logs a call to a session-gated endpoint without a subject.
func (sl *SecurityLogger) LogUnauthorizedAccess(ctx context.Context, ip, requestID, endpoint string) {
	sl.Log(ctx, SecurityEvent{
		Event:     EventUnauthorizedAccess,
		IP:        ip,
		RequestID: requestID,
		Details:   map[string]interface{}{"endpoint": endpoint},
	})
}

// LogWebhookRejected logs a webhook delivery with a bad signature.
func (sl *SecurityLogger) LogWebhookRejected(ctx context.Context, ip, deliveryID, reason string) {
	sl.Log(ctx, SecurityEvent{
		Event:   EventWebhookRejected,
		IP:      ip,
		Details: map[string]interface{}{"delivery_id": deliveryID, "reason": reason},
	})
}

// LogProviderUnavailable logs a failed profile fetch from the auth provider.
func (sl *SecurityLogger) LogProviderUnavailable(ctx context.Context, subjectID, operation string, err error) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventProviderUnavailable,
		SubjectType:  "subject",
		SubjectValue: HashValue(subjectID),
		Details:      map[string]interface{}{"operation": operation, "error": err.Error()},
	})
}

// LogAccountMerged logs a placeholder row being taken over by a subject.
func (sl *SecurityLogger) LogAccountMerged(ctx context.Context, subjectID, placeholderID, email string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventAccountMerged,
		SubjectType:  "email",
		SubjectValue: MaskEmail(email),
		Details: map[string]interface{}{
			"subject":     HashValue(subjectID),
			"placeholder": HashValue(placeholderID),
		},
	})
}

// LogAccountDeleted logs removal of a local row on the provider's request.
func (sl *SecurityLogger) LogAccountDeleted(ctx context.Context, subjectID string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventAccountDeleted,
		SubjectType:  "subject",
		SubjectValue: HashValue(subjectID),
	})
}

// LogRateLimitTriggered logs when rate limiting is triggered
func (sl *SecurityLogger) LogRateLimitTriggered(ctx context.Context, ip, userAgent, requestID, endpoint string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventRateLimitTriggered,
		SubjectType:  "ip",
		SubjectValue: ip,
		IP:           ip,
		UserAgent:    userAgent,
		RequestID:    requestID,
		Details:      map[string]interface{}{"endpoint": endpoint},
	})
}

// LogCSRFViolation logs a cookie-authenticated mutation from a foreign origin.
func (sl *SecurityLogger) LogCSRFViolation(ctx context.Context, ip, origin, requestID, endpoint string) {
	sl.Log(ctx, SecurityEvent{
		Event:     EventCSRFViolation,
		IP:        ip,
		RequestID: requestID,
		Details:   map[string]interface{}{"origin": origin, "endpoint": endpoint},
	})
}

// Sync flushes any buffered log entries
func (sl *SecurityLogger) Sync() error {
	return sl.zapLogger.Sync()
}

// MaskEmail masks an email for logging (e.g., "j***@example.com")
func MaskEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	atIndex := strings.IndexByte(email, '@')
	if atIndex <= 1 {
		return "***" + email[1:]
	}
	return string(email[0]) + "***" + email[atIndex:]
}

// HashValue creates a SHA256 hash of a value (for logging without PII)
func HashValue(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8])
}
