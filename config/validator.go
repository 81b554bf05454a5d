package config

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/netresearch/loadedhandler/handler"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate applies struct-tag validation to a HandlerSettings value: the
// `validate:"required"` tags on HandlerName/JobName (handler/types.go),
// plus the hand-written non-negative checks below on JobTimeout,
// MaxJobFailures and ResultHistoryLimit.
func Validate(settings *handler.HandlerSettings) error {
	if err := instance().Struct(settings); err != nil {
		return fmt.Errorf("invalid handler settings: %w", err)
	}

	if settings.JobTimeout < 0 {
		return fmt.Errorf("invalid handler settings: JobTimeout must be >= 0, got %d", settings.JobTimeout)
	}
	if settings.MaxJobFailures < 0 {
		return fmt.Errorf("invalid handler settings: MaxJobFailures must be >= 0, got %d", settings.MaxJobFailures)
	}
	if settings.ResultHistoryLimit < 0 {
		return fmt.Errorf("invalid handler settings: ResultHistoryLimit must be >= 0, got %d", settings.ResultHistoryLimit)
	}

	return nil
}
