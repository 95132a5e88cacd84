package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricInstruments caches OpenTelemetry instruments by metric name so
// the emit path never re-creates them. Declared definitions supply the
// description, unit, and bucket boundaries at creation time.
type MetricInstruments struct {
	meter metric.Meter

	mu         sync.RWMutex
	defs       map[string]MetricDefinition
	modules    map[string]string // metric name -> declaring module
	counters   map[string]metric.Float64Counter
	histograms map[string]metric.Float64Histogram
	gauges     map[string]*gaugeState
}

// gaugeState backs one observable gauge. The registered callback
// reports the last stored value per label set at collection time.
type gaugeState struct {
	mu     sync.Mutex
	values map[attribute.Distinct]gaugeValue
}

type gaugeValue struct {
	value float64
	attrs attribute.Set
}

// NewMetricInstruments creates an instrument cache on the given meter.
func NewMetricInstruments(meter metric.Meter) *MetricInstruments {
	return &MetricInstruments{
		meter:      meter,
		defs:       make(map[string]MetricDefinition),
		modules:    make(map[string]string),
		counters:   make(map[string]metric.Float64Counter),
		histograms: make(map[string]metric.Float64Histogram),
		gauges:     make(map[string]*gaugeState),
	}
}

// Preregister stores definitions and creates their instruments up
// front, so first emission does not pay the creation cost and every
// instrument carries its declared metadata. The declaring module is
// remembered and attached as a "module" label on every recording.
func (m *MetricInstruments) Preregister(module string, defs []MetricDefinition) {
	for _, def := range defs {
		m.mu.Lock()
		m.defs[def.Name] = def
		m.modules[def.Name] = module
		m.mu.Unlock()

		switch def.Type {
		case "counter":
			_, _ = m.counter(def.Name)
		case "histogram":
			_, _ = m.histogram(def.Name)
		case "gauge":
			_, _ = m.gauge(def.Name)
		}
	}
}

// definition returns the declared definition, zero-valued when the
// metric was never declared.
func (m *MetricInstruments) definition(name string) MetricDefinition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defs[name]
}

// declaringModule returns the module that declared the metric, empty
// for undeclared names.
func (m *MetricInstruments) declaringModule(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.modules[name]
}

// RecordCounter adds value to the named counter.
func (m *MetricInstruments) RecordCounter(ctx context.Context, name string, value float64, attrs ...attribute.KeyValue) error {
	counter, err := m.counter(name)
	if err != nil {
		return err
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
	return nil
}

// RecordHistogram records value into the named distribution.
func (m *MetricInstruments) RecordHistogram(ctx context.Context, name string, value float64, attrs ...attribute.KeyValue) error {
	histogram, err := m.histogram(name)
	if err != nil {
		return err
	}
	histogram.Record(ctx, value, metric.WithAttributes(attrs...))
	return nil
}

// RecordGauge stores the latest value for the named gauge; the
// observable callback reports it on the next collection.
func (m *MetricInstruments) RecordGauge(name string, value float64, attrs ...attribute.KeyValue) error {
	state, err := m.gauge(name)
	if err != nil {
		return err
	}
	set := attribute.NewSet(attrs...)
	state.mu.Lock()
	state.values[set.Equivalent()] = gaugeValue{value: value, attrs: set}
	state.mu.Unlock()
	return nil
}

func (m *MetricInstruments) counter(name string) (metric.Float64Counter, error) {
	m.mu.RLock()
	counter, ok := m.counters[name]
	m.mu.RUnlock()
	if ok {
		return counter, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if counter, ok = m.counters[name]; ok {
		return counter, nil
	}

	def := m.defs[name]
	var opts []metric.Float64CounterOption
	if def.Help != "" {
		opts = append(opts, metric.WithDescription(def.Help))
	}
	if def.Unit != "" {
		opts = append(opts, metric.WithUnit(def.Unit))
	}
	counter, err := m.meter.Float64Counter(name, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating counter %s: %w", name, err)
	}
	m.counters[name] = counter
	return counter, nil
}

func (m *MetricInstruments) histogram(name string) (metric.Float64Histogram, error) {
	m.mu.RLock()
	histogram, ok := m.histograms[name]
	m.mu.RUnlock()
	if ok {
		return histogram, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if histogram, ok = m.histograms[name]; ok {
		return histogram, nil
	}

	def := m.defs[name]
	var opts []metric.Float64HistogramOption
	if def.Help != "" {
		opts = append(opts, metric.WithDescription(def.Help))
	}
	if def.Unit != "" {
		opts = append(opts, metric.WithUnit(def.Unit))
	}
	if len(def.Buckets) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(def.Buckets...))
	}
	histogram, err := m.meter.Float64Histogram(name, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating histogram %s: %w", name, err)
	}
	m.histograms[name] = histogram
	return histogram, nil
}

func (m *MetricInstruments) gauge(name string) (*gaugeState, error) {
	m.mu.RLock()
	state, ok := m.gauges[name]
	m.mu.RUnlock()
	if ok {
		return state, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok = m.gauges[name]; ok {
		return state, nil
	}

	state = &gaugeState{values: make(map[attribute.Distinct]gaugeValue)}
	def := m.defs[name]
	opts := []metric.Float64ObservableGaugeOption{
		metric.WithFloat64Callback(func(_ context.Context, observer metric.Float64Observer) error {
			state.mu.Lock()
			defer state.mu.Unlock()
			for _, v := range state.values {
				observer.Observe(v.value, metric.WithAttributeSet(v.attrs))
			}
			return nil
		}),
	}
	if def.Help != "" {
		opts = append(opts, metric.WithDescription(def.Help))
	}
	if def.Unit != "" {
		opts = append(opts, metric.WithUnit(def.Unit))
	}
	if _, err := m.meter.Float64ObservableGauge(name, opts...); err != nil {
		return nil, fmt.Errorf("creating gauge %s: %w", name, err)
	}
	m.gauges[name] = state
	return state, nil
}
