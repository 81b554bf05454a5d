package config

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/netresearch/go-cron"

	"github.com/netresearch/loadedhandler/handler"
)

var (
	sanitizerOnce sync.Once
	sanitizer     *Sanitizer
)

func sharedSanitizer() *Sanitizer {
	sanitizerOnce.Do(func() { sanitizer = NewSanitizer() })
	return sanitizer
}

// sanitizeSettings applies the Sanitizer to the free-form string fields a
// HandlerSettings decoded from INI carries, rejecting control characters,
// oversized identifiers, or a malformed Schedule before Validate ever sees
// the section.
func sanitizeSettings(settings *handler.HandlerSettings) error {
	s := sharedSanitizer()

	name, err := s.SanitizeString(settings.HandlerName, 100)
	if err != nil {
		return fmt.Errorf("HandlerName: %w", err)
	}
	if err := s.ValidateIdentifier(name); err != nil {
		return fmt.Errorf("HandlerName: %w", err)
	}
	settings.HandlerName = name

	jobName, err := s.SanitizeString(settings.JobName, 100)
	if err != nil {
		return fmt.Errorf("JobName: %w", err)
	}
	if err := s.ValidateIdentifier(jobName); err != nil {
		return fmt.Errorf("JobName: %w", err)
	}
	settings.JobName = jobName

	schedule, err := s.SanitizeString(settings.Schedule, 100)
	if err != nil {
		return fmt.Errorf("Schedule: %w", err)
	}
	if err := s.ValidateCronExpression(schedule); err != nil {
		return fmt.Errorf("Schedule: %w", err)
	}
	settings.Schedule = schedule

	return nil
}

// Sanitizer scrubs and validates the free-form string fields an INI file
// hands to HandlerSettings, adapted from the teacher's config.Sanitizer
// down to the checks this engine's settings surface actually needs:
// HandlerName/JobName (identifiers) and Schedule (a cron expression).
type Sanitizer struct {
	identifierPattern *regexp.Regexp
}

// NewSanitizer returns a ready-to-use Sanitizer.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		identifierPattern: regexp.MustCompile(`^[A-Za-z0-9_-]+$`),
	}
}

// SanitizeString strips null bytes, trims whitespace, and rejects any
// remaining control character other than tab, or input over maxLength
// (measured before stripping and trimming).
func (s *Sanitizer) SanitizeString(input string, maxLength int) (string, error) {
	if len(input) > maxLength {
		return "", fmt.Errorf("input exceeds maximum length of %d characters", maxLength)
	}

	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.TrimSpace(input)

	for _, r := range input {
		if unicode.IsControl(r) && r != '\t' {
			return "", fmt.Errorf("input contains invalid control characters")
		}
	}

	return input, nil
}

// ValidateIdentifier checks that name is a non-empty run of letters,
// digits, dashes, and underscores - the shape §3's Package/Handler/Job
// identity components are composed from.
func (s *Sanitizer) ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier must not be empty")
	}
	if !s.identifierPattern.MatchString(name) {
		return fmt.Errorf("identifier %q may only contain letters, digits, dashes, and underscores", name)
	}
	return nil
}

// ValidateCronExpression validates a Schedule value using go-cron's parser,
// the same dependency and option set the teacher's Sanitizer.ValidateCronExpression
// uses, so standard cron expressions, @every intervals, and descriptors
// (@daily, @hourly) are all accepted.
func (s *Sanitizer) ValidateCronExpression(expr string) error {
	if expr == "" {
		return nil
	}

	parseOpts := cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor
	if err := cron.ValidateSpec(expr, parseOpts); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return nil
}
