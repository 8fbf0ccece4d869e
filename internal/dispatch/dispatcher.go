package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"facility-ml/internal/common/config"
	stderrors "facility-ml/internal/common/errors"
	"facility-ml/internal/common/logger"
	"facility-ml/internal/common/metrics"
	"facility-ml/internal/common/observability"
)

// Dispatcher answers one request per Run.
type Dispatcher struct {
	registry *Registry
	config   *config.Config
	logger   logger.Logger
	errors   *stderrors.ErrorHandler
	obs      *observability.Observability
}

type Option func(*Dispatcher)

// WithObservability traces and counts every answered request.
func WithObservability(obs *observability.Observability) Option {
	return func(d *Dispatcher) { d.obs = obs }
}

func New(registry *Registry, cfg *config.Config, log logger.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		config:   cfg,
		logger:   log,
		errors:   stderrors.NewErrorHandler(log),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run answers the request for endpoint name and writes exactly one JSON line to
// stdout. The request comes from args when the endpoint accepts positional
// arguments and any were given, otherwise from stdin. It returns the process
// exit code.
func (d *Dispatcher) Run(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) int {
	start := time.Now()
	log := d.logger.WithFields(map[string]interface{}{
		"endpoint":  name,
		"requestId": uuid.NewString(),
	})

	endpoint, ok := d.registry.Lookup(name)
	if !ok {
		return d.reject(stdout, name, stderrors.NewUnknownEndpointError(name))
	}
	if !config.IsPredictorEnabled(d.config, name) {
		return d.reject(stdout, name, stderrors.NewEndpointDisabledError(name))
	}

	doc, err := readRequest(endpoint, args, stdin)
	if err != nil {
		return d.reject(stdout, name, err)
	}
	if err := endpoint.Validate(doc); err != nil {
		return d.reject(stdout, name, err)
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return d.reject(stdout, name, stderrors.NewInvalidInputError(err.Error()))
	}

	log.Debug("request accepted", map[string]interface{}{"fields": len(doc)})
	ctx, span := d.obs.StartSpan(ctx, "predict."+name, map[string]string{"endpoint": name})
	result, err := safeHandle(ctx, endpoint, payload, log)
	observability.EndSpan(span, err)
	metrics.PredictionDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		d.obs.RecordJob(ctx, observability.KindPredict, name, metrics.OutcomeError, time.Since(start))
		metrics.PredictionsTotal.WithLabelValues(name, metrics.OutcomeError).Inc()
		d.write(stdout, d.errors.Payload(err, endpoint.Fallback(doc)))
		return stderrors.ExitCode(err)
	}

	d.obs.RecordJob(ctx, observability.KindPredict, name, metrics.OutcomeSuccess, time.Since(start))
	metrics.PredictionsTotal.WithLabelValues(name, metrics.OutcomeSuccess).Inc()
	log.Info("request answered", map[string]interface{}{
		"durationMs": time.Since(start).Milliseconds(),
	})
	d.write(stdout, result)
	return stderrors.ExitOK
}

func (d *Dispatcher) reject(stdout io.Writer, name string, err error) int {
	metrics.PredictionsTotal.WithLabelValues(name, metrics.OutcomeRejected).Inc()
	d.write(stdout, d.errors.Payload(err, nil))
	return stderrors.ExitCode(err)
}

func (d *Dispatcher) write(stdout io.Writer, v interface{}) {
	line, err := json.Marshal(v)
	if err != nil {
		d.logger.Error("failed to encode response", map[string]interface{}{"error": err.Error()})
		line, _ = json.Marshal(map[string]interface{}{"error": err.Error()})
	}
	if _, err := fmt.Fprintf(stdout, "%s\n", line); err != nil {
		d.logger.Error("failed to write response", map[string]interface{}{"error": err.Error()})
	}
}

// readRequest builds the request document from args or stdin.
func readRequest(endpoint Endpoint, args []string, stdin io.Reader) (map[string]interface{}, error) {
	if len(args) > 0 {
		if doc, ok := endpoint.FromArgs(args); ok {
			return doc, nil
		}
	}

	raw, err := io.ReadAll(stdin)
	if err != nil {
		return nil, stderrors.NewInvalidInputError(fmt.Sprintf("read stdin: %v", err))
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, stderrors.NewInvalidInputError("empty request")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, stderrors.NewInvalidInputError(err.Error())
	}
	if doc == nil {
		return nil, stderrors.NewInvalidInputError("request must be a JSON object")
	}
	return doc, nil
}

// safeHandle turns a panic inside an endpoint into a prediction error.
func safeHandle(ctx context.Context, endpoint Endpoint, payload []byte, log logger.Logger) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("endpoint panicked", map[string]interface{}{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			})
			result = nil
			err = stderrors.NewPredictionFailedError(fmt.Errorf("panic: %v", r))
		}
	}()
	return endpoint.Handle(ctx, payload)
}
