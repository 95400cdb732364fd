package core

import (
	"strings"
	"time"
)

type (
	NotificationPrefs struct {
		EmailAlerts       bool `json:"emailAlerts"`
		PushNotifications bool `json:"pushNotifications"`
		MonthlyReport     bool `json:"monthlyReport"`
	}

	Preferences struct {
		Currency      string            `json:"currency"`
		DateFormat    string            `json:"dateFormat"`
		Notifications NotificationPrefs `json:"notifications"`
	}

	SecurityPrefs struct {
		TwoFactorAuth  bool `json:"twoFactorAuth"`
		SessionTimeout int  `json:"sessionTimeout"` // minutes
	}

	// Settings is the per-owner preference record.
	Settings struct {
		OwnerID     string        `json:"ownerId"`
		Preferences Preferences   `json:"preferences"`
		Security    SecurityPrefs `json:"security"`
		UpdatedAt   time.Time     `json:"updatedAt"`
	}
)

var (
	ErrInvalidCurrency       = &ValidationError{Field: "currency", Message: "Currency must be a 3-letter code"}
	ErrInvalidSessionTimeout = &ValidationError{Field: "sessionTimeout", Message: "Session timeout must be between 1 and 1440 minutes"}
)

// DefaultSettings returns the record created on an owner's first access.
func DefaultSettings(ownerID string) Settings {
	return Settings{
		OwnerID: ownerID,
		Preferences: Preferences{
			Currency:   "USD",
			DateFormat: "MM/DD/YYYY",
			Notifications: NotificationPrefs{
				EmailAlerts:       true,
				PushNotifications: true,
				MonthlyReport:     true,
			},
		},
		Security: SecurityPrefs{
			TwoFactorAuth:  false,
			SessionTimeout: 30,
		},
	}
}

func (s Settings) Validate() error {
	if len(s.Preferences.Currency) != 3 {
		return ErrInvalidCurrency
	}
	if s.Security.SessionTimeout < 1 || s.Security.SessionTimeout > 1440 {
		return ErrInvalidSessionTimeout
	}
	return nil
}

// SettingsPatch is a partial settings update; nil fields are left unchanged.
type (
	SettingsPatch struct {
		Preferences *PreferencesPatch `json:"preferences"`
		Security    *SecurityPatch    `json:"security"`
	}

	PreferencesPatch struct {
		Currency      *string             `json:"currency"`
		DateFormat    *string             `json:"dateFormat"`
		Notifications *NotificationsPatch `json:"notifications"`
	}

	NotificationsPatch struct {
		EmailAlerts       *bool `json:"emailAlerts"`
		PushNotifications *bool `json:"pushNotifications"`
		MonthlyReport     *bool `json:"monthlyReport"`
	}

	SecurityPatch struct {
		TwoFactorAuth  *bool `json:"twoFactorAuth"`
		SessionTimeout *int  `json:"sessionTimeout"`
	}
)

// Apply merges the patch into s.
func (p SettingsPatch) Apply(s Settings) Settings {
	if pr := p.Preferences; pr != nil {
		if pr.Currency != nil {
			s.Preferences.Currency = strings.ToUpper(strings.TrimSpace(*pr.Currency))
		}
		if pr.DateFormat != nil {
			s.Preferences.DateFormat = strings.TrimSpace(*pr.DateFormat)
		}
		if n := pr.Notifications; n != nil {
			if n.EmailAlerts != nil {
				s.Preferences.Notifications.EmailAlerts = *n.EmailAlerts
			}
			if n.PushNotifications != nil {
				s.Preferences.Notifications.PushNotifications = *n.PushNotifications
			}
			if n.MonthlyReport != nil {
				s.Preferences.Notifications.MonthlyReport = *n.MonthlyReport
			}
		}
	}
	if sec := p.Security; sec != nil {
		if sec.TwoFactorAuth != nil {
			s.Security.TwoFactorAuth = *sec.TwoFactorAuth
		}
		if sec.SessionTimeout != nil {
			s.Security.SessionTimeout = *sec.SessionTimeout
		}
	}
	return s
}
