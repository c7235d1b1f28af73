package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/domain"
)

// Provider defines the interface for email providers
type Provider interface {
	Send(ctx context.Context, to, subject, body string, isHTML bool) error
}

// Config holds email service configuration
type Config struct {
	// Provider type: "sendgrid" or "smtp"
	Provider string

	// From email address
	FromEmail string
	FromName  string

	// SendGrid configuration
	SendGridAPIKey string

	// SMTP configuration (for Mailhog or other SMTP servers)
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPUseTLS   bool

	// Template configuration
	TemplateDir string
	BaseURL     string // Base URL for links in emails
}

// DefaultConfig returns a default configuration for development (Mailhog)
func DefaultConfig() *Config {
	return &Config{
		Provider:   "smtp",
		FromEmail:  "noreply@sigec-ve.com",
		FromName:   "SIGEC-VE",
		SMTPHost:   "localhost",
		SMTPPort:   1025, // Mailhog default port
		SMTPUseTLS: false,
		BaseURL:    "http://localhost:3000",
	}
}

// Service implements the EmailService interface
type Service struct {
	config    *Config
	provider  Provider
	templates map[string]*template.Template
	log       *zap.Logger
}

// NewService creates a new email service
func NewService(config *Config, log *zap.Logger) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}

	s := &Service{
		config:    config,
		templates: make(map[string]*template.Template),
		log:       log,
	}

	// Initialize provider
	switch config.Provider {
	case "sendgrid":
		if config.SendGridAPIKey == "" {
			return nil, fmt.Errorf("SendGrid API key is required")
		}
		s.provider = NewSendGridProvider(config.SendGridAPIKey, config.FromEmail, config.FromName, log)
	case "smtp":
		s.provider = NewSMTPProvider(
			config.SMTPHost,
			config.SMTPPort,
			config.SMTPUsername,
			config.SMTPPassword,
			config.FromEmail,
			config.FromName,
			config.SMTPUseTLS,
		)
	default:
		return nil, fmt.Errorf("unknown email provider: %s", config.Provider)
	}

	// Load templates
	s.loadTemplates()

	return s, nil
}

// loadTemplates loads all email templates
func (s *Service) loadTemplates() {
	s.templates["low_balance"] = template.Must(template.New("low_balance").Parse(lowBalanceTemplate))
	s.templates["station_offline"] = template.Must(template.New("station_offline").Parse(stationOfflineTemplate))
	s.templates["charging_error"] = template.Must(template.New("charging_error").Parse(chargingErrorTemplate))
}

// Send sends a generic email
func (s *Service) Send(ctx context.Context, to, subject, body string) error {
	s.log.Info("Sending email",
		zap.String("to", to),
		zap.String("subject", subject),
	)

	if err := s.provider.Send(ctx, to, subject, body, false); err != nil {
		s.log.Error("Failed to send email",
			zap.String("to", to),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// SendHTML sends an HTML email
func (s *Service) SendHTML(ctx context.Context, to, subject, htmlBody string) error {
	s.log.Info("Sending HTML email",
		zap.String("to", to),
		zap.String("subject", subject),
	)

	if err := s.provider.Send(ctx, to, subject, htmlBody, true); err != nil {
		s.log.Error("Failed to send HTML email",
			zap.String("to", to),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send HTML email: %w", err)
	}

	return nil
}

// SendTemplate sends an email using a template
func (s *Service) SendTemplate(ctx context.Context, to, templateName string, data map[string]interface{}) error {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return fmt.Errorf("template not found: %s", templateName)
	}

	// Add base URL to data
	if data == nil {
		data = make(map[string]interface{})
	}
	data["BaseURL"] = s.config.BaseURL

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	subject, ok := data["Subject"].(string)
	if !ok {
		subject = "Notification from SIGEC-VE"
	}

	return s.SendHTML(ctx, to, subject, buf.String())
}

// SendLowBalance emails a low balance warning to the client.
func (s *Service) SendLowBalance(ctx context.Context, client *domain.Client, balance decimal.Decimal) error {
	data := map[string]interface{}{
		"Subject":  "Low Balance Warning",
		"Balance":  balance.StringFixed(2),
		"Currency": "KGS",
	}

	return s.SendTemplate(ctx, client.Email, "low_balance", data)
}

// SendStationOffline notifies the station owner that a station was marked offline
// by the availability sweeper (spec §4.5).
func (s *Service) SendStationOffline(ctx context.Context, ownerEmail, stationID string, lastHeartbeat time.Time) error {
	data := map[string]interface{}{
		"Subject":       fmt.Sprintf("Station %s offline", stationID),
		"StationID":     stationID,
		"LastHeartbeat": lastHeartbeat.Format("2006-01-02 15:04:05 MST"),
	}

	return s.SendTemplate(ctx, ownerEmail, "station_offline", data)
}

// SendChargingError notifies the client bound to a connector of an OCPP error
// diagnostics trigger (spec §4.5).
func (s *Service) SendChargingError(ctx context.Context, client *domain.Client, stationID string, connectorID int, errorCode string) error {
	data := map[string]interface{}{
		"Subject":     "Charging error",
		"StationID":   stationID,
		"ConnectorID": connectorID,
		"ErrorCode":   errorCode,
	}

	return s.SendTemplate(ctx, client.Email, "charging_error", data)
}
