// Package predictors holds what every prediction endpoint shares: the model
// directory, configuration, logger and clock.
package predictors

import (
	"time"

	"facility-ml/internal/artifacts"
	"facility-ml/internal/common/config"
	"facility-ml/internal/common/errors"
	"facility-ml/internal/common/logger"
	"facility-ml/internal/common/metrics"
	"facility-ml/internal/common/validation"
)

// Context is built once per process and handed to every handler.
type Context struct {
	Store  *artifacts.Store
	Config *config.Config
	Logger logger.Logger
	Now    func() time.Time
}

func NewContext(cfg *config.Config, log logger.Logger) *Context {
	return &Context{
		Store:  artifacts.NewStore(cfg.Models.Dir),
		Config: cfg,
		Logger: log,
		Now:    time.Now,
	}
}

// Today is the current calendar day in UTC.
func (c *Context) Today() time.Time {
	now := c.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// ModelUnavailable records an artifact that could not be loaded. The caller
// answers with its fallback.
func ModelUnavailable(log logger.Logger, endpoint, artifact string, err error) {
	metrics.ModelLoadFailures.WithLabelValues(endpoint, artifact).Inc()
	stdErr := errors.NewModelUnavailableError(artifact, err)
	log.Warn("model not available, using fallback", map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"artifact":  artifact,
		"error":     err.Error(),
	})
}

// ValidateRequest checks doc against schema and reports the missing or invalid
// fields under message.
func ValidateRequest(schema *validation.Schema, doc map[string]interface{}, message string) error {
	result := schema.Validate(doc)
	if result.Valid {
		return nil
	}
	return errors.NewMissingParametersError(message, result.Fields())
}
