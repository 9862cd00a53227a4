package source

import (
	"context"
	"log/slog"
	"time"

	"github.com/tartampluch/go-birthday-tracker/internal/config"
	"github.com/tartampluch/go-birthday-tracker/internal/engine"
)

// Sink receives every successfully loaded record set.
type Sink interface {
	Update(records []engine.BirthdayRecord) error
}

// Refresher periodically reloads a Source into a Sink.
type Refresher struct {
	Source   Source
	Sink     Sink
	Interval time.Duration

	trigger chan struct{}
}

// NewRefresher returns a refresher. A non-positive interval uses the default.
func NewRefresher(src Source, sink Sink, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = time.Duration(config.DefaultRefreshMin) * time.Minute
	}
	return &Refresher{
		Source:   src,
		Sink:     sink,
		Interval: interval,
		trigger:  make(chan struct{}, config.ChannelBufferSize),
	}
}

// Trigger requests an immediate reload. It never blocks; requests made while
// one is already pending are merged.
func (r *Refresher) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run loads once, then on every tick or trigger, until ctx is cancelled.
// Load failures are logged and the previous data keeps being served.
func (r *Refresher) Run(ctx context.Context) error {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	_ = r.Refresh(ctx)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	log.Info(config.MsgWorkerStart, config.LogKeyInterval, r.Interval)

	for {
		select {
		case <-ctx.Done():
			log.Info(config.MsgWorkerStop)
			return nil

		case <-r.trigger:
			log.Info(config.MsgSyncManual)
			_ = r.Refresh(ctx)

		case <-ticker.C:
			_ = r.Refresh(ctx)
		}
	}
}

// Refresh loads the source once and pushes the result into the sink.
func (r *Refresher) Refresh(ctx context.Context) error {
	log := slog.With(config.LogKeyComponent, config.CompWorker)
	log.Debug(config.MsgSyncStarted)

	records, err := r.Source.Load(ctx)
	if err != nil {
		log.Error(config.MsgSyncFailed, config.LogKeyError, err)
		return err
	}
	if err := r.Sink.Update(records); err != nil {
		log.Error(config.MsgSyncFailed, config.LogKeyError, err)
		return err
	}

	log.Info(config.MsgSyncSuccess, config.LogKeyCount, len(records))
	return nil
}
