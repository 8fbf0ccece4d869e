// Package dispatch routes one prediction request to its endpoint and turns the
// result into the single JSON line the caller reads.
package dispatch

import (
	"context"
	"sort"

	"facility-ml/internal/predictors"
	classifyintent "facility-ml/internal/predictors/chatbot/classify-intent"
	forecastdemand "facility-ml/internal/predictors/forecasting/forecast-demand"
	classifypurpose "facility-ml/internal/predictors/purpose/classify-purpose"
	detectunclearpurpose "facility-ml/internal/predictors/purpose/detect-unclear-purpose"
	recommendfacilities "facility-ml/internal/predictors/recommendation/recommend-facilities"
	predictconflict "facility-ml/internal/predictors/reservation/predict-conflict"
	predictrisk "facility-ml/internal/predictors/reservation/predict-risk"
)

// Endpoint is one prediction endpoint.
type Endpoint interface {
	Name() string
	// Validate checks the decoded request before any model is touched.
	Validate(doc map[string]interface{}) error
	// FromArgs builds the request from command-line arguments. ok is false
	// for endpoints that only read stdin.
	FromArgs(args []string) (doc map[string]interface{}, ok bool)
	Handle(ctx context.Context, payload []byte) (interface{}, error)
	// Fallback is the result reported alongside an unexpected error.
	Fallback(doc map[string]interface{}) interface{}
}

// Registry maps endpoint names to endpoints.
type Registry struct {
	endpoints map[string]Endpoint
}

func NewRegistry(endpoints ...Endpoint) *Registry {
	r := &Registry{endpoints: make(map[string]Endpoint, len(endpoints))}
	for _, e := range endpoints {
		r.Register(e)
	}
	return r
}

// Register adds e, replacing any endpoint of the same name.
func (r *Registry) Register(e Endpoint) {
	r.endpoints[e.Name()] = e
}

func (r *Registry) Lookup(name string) (Endpoint, bool) {
	e, ok := r.endpoints[name]
	return e, ok
}

// Names lists the registered endpoints alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.endpoints))
	for name := range r.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry registers every prediction endpoint against deps.
func DefaultRegistry(deps *predictors.Context) *Registry {
	log := deps.Logger
	return NewRegistry(
		classifyintent.NewHandler(classifyintent.LoadConfig(deps.Config), deps, log),
		classifypurpose.NewHandler(classifypurpose.LoadConfig(deps.Config), deps, log),
		detectunclearpurpose.NewHandler(detectunclearpurpose.LoadConfig(), deps, log),
		forecastdemand.NewHandler(forecastdemand.LoadConfig(), deps, log),
		predictconflict.NewHandler(predictconflict.LoadConfig(), deps, log),
		predictrisk.NewHandler(predictrisk.LoadConfig(), deps, log),
		recommendfacilities.NewHandler(recommendfacilities.LoadConfig(), deps, log),
	)
}
