package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Email.UnsubscribeSecret) < 32 {
		return fmt.Errorf("email.unsubscribe_secret must be at least 32 characters (got %d)", len(c.Email.UnsubscribeSecret))
	}

	if len(c.Email.WebhookSecret) < 16 {
		return fmt.Errorf("email.webhook_secret must be at least 16 characters (got %d)", len(c.Email.WebhookSecret))
	}

	if !strings.Contains(c.Email.SenderAddress, "@") {
		return fmt.Errorf("email.sender_address %q is not an email address", c.Email.SenderAddress)
	}

	if _, err := time.LoadLocation(c.Email.Timezone); err != nil {
		return fmt.Errorf("email.timezone: %w", err)
	}

	if c.Server.WebhookRatePerMin <= 0 {
		return fmt.Errorf("server.webhook_rate_per_min must be > 0 (got %d)", c.Server.WebhookRatePerMin)
	}

	return nil
}

// DayLocation returns the canonical timezone for calendar-day boundaries.
// Validate has already checked it parses.
func (c *Config) DayLocation() *time.Location {
	loc, err := time.LoadLocation(c.Email.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
