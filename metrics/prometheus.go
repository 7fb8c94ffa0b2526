// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"code.vegaprotocol.io/dex/logging"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Gauge ...
	Gauge instrument = iota
	// Counter ...
	Counter
	// Histogram ...
	Histogram
)

const namespace = "dex"

var (
	// ErrInstrumentNotSupported signals the specified instrument is not yet supported
	ErrInstrumentNotSupported = errors.New("instrument type unsupported")
	// ErrInstrumentTypeMismatch signal the type of the instrument is not expected
	ErrInstrumentTypeMismatch = errors.New("instrument is not of the expected type")
)

var (
	setupOnce sync.Once
	setupErr  error

	engineTime          *prometheus.CounterVec
	instructionCounter  *prometheus.CounterVec
	orderCounter        *prometheus.CounterVec
	fillCounter         *prometheus.CounterVec
	eventsConsumed      *prometheus.CounterVec
	eventQueueGauge     *prometheus.GaugeVec
	accumulatedFees     *prometheus.GaugeVec
	crankDurationSecond *prometheus.HistogramVec
)

// abstract prometheus types
type instrument int

type instrumentOpts struct {
	opts    prometheus.Opts
	buckets []float64
	vectors []string
}

type mi struct {
	gaugeV     *prometheus.GaugeVec
	counterV   *prometheus.CounterVec
	histogramV *prometheus.HistogramVec
}

// InstrumentOption - vararg for instrument options setting
type InstrumentOption func(o *instrumentOpts)

// Vectors - configuration used to create a vector of a given interface, slice of label names
func Vectors(labels ...string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.vectors = labels
	}
}

// Help - set the help field on instrument
func Help(help string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Help = help
	}
}

// Namespace - set namespace
func Namespace(ns string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Namespace = ns
	}
}

// Buckets - specific to histogram type
func Buckets(b []float64) InstrumentOption {
	return func(o *instrumentOpts) {
		o.buckets = b
	}
}

// AddInstrument configures and registers a new vector instrument.
func AddInstrument(t instrument, name string, opts ...InstrumentOption) (*mi, error) {
	var col prometheus.Collector
	ret := mi{}
	opt := instrumentOpts{
		opts: prometheus.Opts{
			Name: name,
		},
	}
	for _, o := range opts {
		o(&opt)
	}
	switch t {
	case Gauge:
		ret.gaugeV = prometheus.NewGaugeVec(prometheus.GaugeOpts(opt.opts), opt.vectors)
		col = ret.gaugeV
	case Counter:
		ret.counterV = prometheus.NewCounterVec(prometheus.CounterOpts(opt.opts), opt.vectors)
		col = ret.counterV
	case Histogram:
		ret.histogramV = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:      opt.opts.Name,
			Namespace: opt.opts.Namespace,
			Help:      opt.opts.Help,
			Buckets:   opt.buckets,
		}, opt.vectors)
		col = ret.histogramV
	default:
		return nil, ErrInstrumentNotSupported
	}
	if err := prometheus.Register(col); err != nil {
		return nil, errors.Wrapf(err, "could not register %s", name)
	}
	return &ret, nil
}

func (m mi) GaugeVec() (*prometheus.GaugeVec, error) {
	if m.gaugeV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.gaugeV, nil
}

func (m mi) CounterVec() (*prometheus.CounterVec, error) {
	if m.counterV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.counterV, nil
}

func (m mi) HistogramVec() (*prometheus.HistogramVec, error) {
	if m.histogramV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.histogramV, nil
}

// Setup registers the instruments. It is safe to call more than once.
func Setup() error {
	setupOnce.Do(func() {
		setupErr = setupMetrics()
	})
	return setupErr
}

// Start registers the instruments and serves them when enabled.
func Start(log *logging.Logger, conf Config) error {
	if !conf.Enabled {
		return nil
	}
	if err := Setup(); err != nil {
		return errors.Wrap(err, "could not set up metrics")
	}
	mux := http.NewServeMux()
	mux.Handle(conf.Path, promhttp.Handler())
	go func() {
		addr := fmt.Sprintf(":%d", conf.Port)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("metrics endpoint stopped", logging.String("address", addr), logging.Error(err))
		}
	}()
	return nil
}

func counterVec(name, help string, labels ...string) (*prometheus.CounterVec, error) {
	h, err := AddInstrument(Counter, name, Namespace(namespace), Vectors(labels...), Help(help))
	if err != nil {
		return nil, err
	}
	return h.CounterVec()
}

func gaugeVec(name, help string, labels ...string) (*prometheus.GaugeVec, error) {
	h, err := AddInstrument(Gauge, name, Namespace(namespace), Vectors(labels...), Help(help))
	if err != nil {
		return nil, err
	}
	return h.GaugeVec()
}

func setupMetrics() error {
	var err error
	if engineTime, err = counterVec("engine_seconds_total", "Time spent in each engine function", "market", "engine", "fn"); err != nil {
		return err
	}
	if instructionCounter, err = counterVec("instructions_total", "Number of instructions processed", "instruction", "result"); err != nil {
		return err
	}
	if orderCounter, err = counterVec("orders_total", "Number of orders placed", "market", "side", "type"); err != nil {
		return err
	}
	if fillCounter, err = counterVec("fills_total", "Number of fill events applied", "market"); err != nil {
		return err
	}
	if eventsConsumed, err = counterVec("events_consumed_total", "Number of queued events consumed by the crank", "market"); err != nil {
		return err
	}
	if eventQueueGauge, err = gaugeVec("event_queue_length", "Number of events waiting for the crank", "market"); err != nil {
		return err
	}
	if accumulatedFees, err = gaugeVec("accumulated_fees", "Fees accumulated by a market and not swept yet", "market"); err != nil {
		return err
	}

	h, err := AddInstrument(
		Histogram,
		"crank_duration_seconds",
		Namespace(namespace),
		Vectors("market"),
		Buckets(prometheus.ExponentialBuckets(0.001, 2, 12)),
		Help("Duration of one crank submission"),
	)
	if err != nil {
		return err
	}
	crankDurationSecond, err = h.HistogramVec()
	return err
}

// EngineTimeCounterAdd adds the time elapsed since start to the engine counter.
func EngineTimeCounterAdd(start time.Time, labelValues ...string) {
	if engineTime == nil {
		return
	}
	engineTime.WithLabelValues(labelValues...).Add(time.Since(start).Seconds())
}

// InstructionCounterInc increments the instruction counter.
func InstructionCounterInc(labelValues ...string) {
	if instructionCounter == nil {
		return
	}
	instructionCounter.WithLabelValues(labelValues...).Inc()
}

// OrderCounterInc increments the order counter.
func OrderCounterInc(labelValues ...string) {
	if orderCounter == nil {
		return
	}
	orderCounter.WithLabelValues(labelValues...).Inc()
}

// FillCounterAdd adds n applied fills.
func FillCounterAdd(n int, labelValues ...string) {
	if fillCounter == nil {
		return
	}
	fillCounter.WithLabelValues(labelValues...).Add(float64(n))
}

// EventsConsumedAdd adds n consumed events.
func EventsConsumedAdd(n int, labelValues ...string) {
	if eventsConsumed == nil {
		return
	}
	eventsConsumed.WithLabelValues(labelValues...).Add(float64(n))
}

// EventQueueGaugeSet sets the event queue length of a market.
func EventQueueGaugeSet(n int, labelValues ...string) {
	if eventQueueGauge == nil {
		return
	}
	eventQueueGauge.WithLabelValues(labelValues...).Set(float64(n))
}

// AccumulatedFeesSet sets the fees accumulated by a market.
func AccumulatedFeesSet(fees uint64, labelValues ...string) {
	if accumulatedFees == nil {
		return
	}
	accumulatedFees.WithLabelValues(labelValues...).Set(float64(fees))
}

// CrankDurationObserve records the duration of one crank submission.
func CrankDurationObserve(start time.Time, labelValues ...string) {
	if crankDurationSecond == nil {
		return
	}
	crankDurationSecond.WithLabelValues(labelValues...).Observe(time.Since(start).Seconds())
}
