package config

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the explicit configuration passed into the resolver, the evaluator
// and the HTTP handlers at construction time.
type Config struct {
	Server   ServerConfig
	CRM      CRMConfig
	Offer    OfferConfig
	Redirect RedirectConfig
	Logging  LoggingConfig
	Queue    QueueConfig
}

type ServerConfig struct {
	Port               string
	CORSAllowedOrigins []string
}

type CRMConfig struct {
	APIKey     string
	LocationID string
	BaseURL    string
	Timeout    time.Duration
}

// FieldIDs are the stable CRM custom-field identifiers. Empty means "match by name".
type FieldIDs struct {
	WelcomeAccess string
	OfferBooked   string
	Expiry        string
	OfferActive   string
}

type OfferConfig struct {
	OptInTag             string
	FieldIDs             FieldIDs
	AccessKeywords       []string
	BookedKeywords       []string
	ExpiryKeywords       []string
	ExcludeKeywords      []string
	ActiveFieldName      string
	PositionalInference  bool
	Location             *time.Location
	RejoinEmailTag       string
	RejoinSMSTag         string
	RejoinEmailField     string
	RejoinSMSField       string
	RejoinOptedOutStatus string
}

type RedirectConfig struct {
	// ValidateOfferURL is where the entry endpoint forwards to. The default
	// is relative; serverless deployments without an /api rewrite set it to
	// the absolute function URL.
	ValidateOfferURL string
	ValidURL         string
	InvalidURL       string
	RejoinValidURL   string
	RejoinInvalidURL string
	Status           int
}

type LoggingConfig struct {
	Level        string
	Format       string
	Output       string
	FileRotation bool
	MaxSize      int
	MaxBackups   int
	MaxAge       int
}

type QueueConfig struct {
	URL      string
	Exchange string
}

const (
	DefaultBaseURL    = "https://rest.gohighlevel.com"
	DefaultOptInTag   = "welcome offer opt-in"
	DefaultValidURL   = "https://yourbeautyclinic.bookedbeauty.co/your-beauty-clinic-welcome-offer-161477"
	DefaultInvalidURL = "https://yourbeautyclinic.bookedbeauty.co/your-beauty-clinic-welcome-offer-invalid-340971"
	DefaultRejoinURL  = "https://yourbeautyclinic.bookedbeauty.co/subscribe-866156"

	DefaultRejoinInvalidURL = "https://yourbeautyclinic.bookedbeauty.co/rejoin-invalid"
	DefaultValidateOfferURL = "/api/validateOffer"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("GHL_BASE_URL", DefaultBaseURL)
	v.SetDefault("GHL_TIMEOUT", "0s")

	v.SetDefault("OFFER_OPT_IN_TAG", DefaultOptInTag)
	v.SetDefault("OFFER_ACCESS_KEYWORDS", "welcomeofferaccess,offeraccess,welcomeaccess,access,welcomeoffer,welcome")
	v.SetDefault("OFFER_BOOKED_KEYWORDS", "offerbooked,booked,book")
	v.SetDefault("OFFER_EXPIRY_KEYWORDS", "welcomeofferexpiry,expiry,expiration,expires")
	v.SetDefault("OFFER_EXCLUDE_KEYWORDS", "invoice,facebook")
	v.SetDefault("OFFER_ACTIVE_FIELD_NAME", "welcome offer active")
	v.SetDefault("OFFER_POSITIONAL_INFERENCE", true)
	v.SetDefault("OFFER_TIMEZONE", "")

	v.SetDefault("REJOIN_EMAIL_TAG", "unsubscribed from email")
	v.SetDefault("REJOIN_SMS_TAG", "unsubscribed from sms")
	v.SetDefault("REJOIN_EMAIL_FIELD", "email marketing status")
	v.SetDefault("REJOIN_SMS_FIELD", "sms marketing status")
	v.SetDefault("REJOIN_OPTED_OUT_STATUS", "opted-out")

	v.SetDefault("VALIDATE_OFFER_URL", DefaultValidateOfferURL)
	v.SetDefault("OFFER_VALID_URL", DefaultValidURL)
	v.SetDefault("OFFER_INVALID_URL", DefaultInvalidURL)
	v.SetDefault("REJOIN_VALID_URL", DefaultRejoinURL)
	v.SetDefault("REJOIN_INVALID_URL", DefaultRejoinInvalidURL)
	v.SetDefault("REDIRECT_STATUS", http.StatusFound)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT", "stdout")
	v.SetDefault("LOG_FILE_ROTATION", false)
	v.SetDefault("LOG_MAX_SIZE", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 3)
	v.SetDefault("LOG_MAX_AGE", 28)

	v.SetDefault("AMQP_EXCHANGE", "ex.offer.verdicts")
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	loc := time.Local
	if tz := strings.TrimSpace(v.GetString("OFFER_TIMEZONE")); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid OFFER_TIMEZONE %q: %w", tz, err)
		}
		loc = l
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               v.GetString("PORT"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		CRM: CRMConfig{
			APIKey:     strings.TrimSpace(v.GetString("GHL_API_KEY")),
			LocationID: strings.TrimSpace(v.GetString("GHL_LOCATION_ID")),
			BaseURL:    strings.TrimRight(v.GetString("GHL_BASE_URL"), "/"),
			Timeout:    v.GetDuration("GHL_TIMEOUT"),
		},
		Offer: OfferConfig{
			OptInTag: strings.ToLower(strings.TrimSpace(v.GetString("OFFER_OPT_IN_TAG"))),
			FieldIDs: FieldIDs{
				WelcomeAccess: strings.TrimSpace(v.GetString("GHL_FIELD_WELCOME_ID")),
				OfferBooked:   strings.TrimSpace(v.GetString("GHL_FIELD_OFFERBOOKED_ID")),
				Expiry:        strings.TrimSpace(v.GetString("GHL_FIELD_EXPIRY_ID")),
				OfferActive:   strings.TrimSpace(v.GetString("GHL_FIELD_ACTIVE_ID")),
			},
			AccessKeywords:       splitList(v.GetString("OFFER_ACCESS_KEYWORDS")),
			BookedKeywords:       splitList(v.GetString("OFFER_BOOKED_KEYWORDS")),
			ExpiryKeywords:       splitList(v.GetString("OFFER_EXPIRY_KEYWORDS")),
			ExcludeKeywords:      splitList(v.GetString("OFFER_EXCLUDE_KEYWORDS")),
			ActiveFieldName:      strings.ToLower(strings.TrimSpace(v.GetString("OFFER_ACTIVE_FIELD_NAME"))),
			PositionalInference:  v.GetBool("OFFER_POSITIONAL_INFERENCE"),
			Location:             loc,
			RejoinEmailTag:       strings.ToLower(v.GetString("REJOIN_EMAIL_TAG")),
			RejoinSMSTag:         strings.ToLower(v.GetString("REJOIN_SMS_TAG")),
			RejoinEmailField:     strings.ToLower(v.GetString("REJOIN_EMAIL_FIELD")),
			RejoinSMSField:       strings.ToLower(v.GetString("REJOIN_SMS_FIELD")),
			RejoinOptedOutStatus: strings.ToLower(v.GetString("REJOIN_OPTED_OUT_STATUS")),
		},
		Redirect: RedirectConfig{
			ValidateOfferURL: strings.TrimSpace(v.GetString("VALIDATE_OFFER_URL")),
			ValidURL:         v.GetString("OFFER_VALID_URL"),
			InvalidURL:       v.GetString("OFFER_INVALID_URL"),
			RejoinValidURL:   v.GetString("REJOIN_VALID_URL"),
			RejoinInvalidURL: v.GetString("REJOIN_INVALID_URL"),
			Status:           v.GetInt("REDIRECT_STATUS"),
		},
		Logging: LoggingConfig{
			Level:        v.GetString("LOG_LEVEL"),
			Format:       v.GetString("LOG_FORMAT"),
			Output:       v.GetString("LOG_OUTPUT"),
			FileRotation: v.GetBool("LOG_FILE_ROTATION"),
			MaxSize:      v.GetInt("LOG_MAX_SIZE"),
			MaxBackups:   v.GetInt("LOG_MAX_BACKUPS"),
			MaxAge:       v.GetInt("LOG_MAX_AGE"),
		},
		Queue: QueueConfig{
			URL:      v.GetString("AMQP_URL"),
			Exchange: v.GetString("AMQP_EXCHANGE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration without reading the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := FromViper(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.Redirect.Status != http.StatusFound && c.Redirect.Status != http.StatusTemporaryRedirect {
		return fmt.Errorf("REDIRECT_STATUS must be 302 or 307, got %d", c.Redirect.Status)
	}
	for name, raw := range map[string]string{
		"OFFER_VALID_URL":    c.Redirect.ValidURL,
		"OFFER_INVALID_URL":  c.Redirect.InvalidURL,
		"REJOIN_VALID_URL":   c.Redirect.RejoinValidURL,
		"REJOIN_INVALID_URL": c.Redirect.RejoinInvalidURL,
		"GHL_BASE_URL":       c.CRM.BaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	if u, err := url.Parse(c.Redirect.ValidateOfferURL); err != nil || (u.Host == "" && !strings.HasPrefix(u.Path, "/")) {
		return fmt.Errorf("VALIDATE_OFFER_URL must be an absolute URL or path, got %q", c.Redirect.ValidateOfferURL)
	}
	if c.Offer.OptInTag == "" {
		return fmt.Errorf("OFFER_OPT_IN_TAG must not be empty")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
