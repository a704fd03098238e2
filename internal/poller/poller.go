// Package poller drives the two background timers behind the live-auction
// view: a data refresh on a multi-second cadence and a once-a-second display
// tick that keeps countdowns current. The two entries are independent and
// individually cancelled on shutdown; the refresh entry skips a tick while the
// previous fetch is still in flight, so a slow node never stacks fetches.
package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/aptomart/aptomart-api/internal/models"
)

// Source produces a fresh live-auction snapshot.
type Source interface {
	LiveAuctions(ctx context.Context) (*models.AuctionListResponse, error)
}

// Sink receives poll results. Implemented by the websocket hub.
type Sink interface {
	BroadcastAuctions(snapshot *models.AuctionListResponse)
	BroadcastTick(now time.Time)
}

// Poller owns the scheduled refresh and tick jobs.
type Poller struct {
	source Source
	sink   Sink
	log    *zap.Logger
	cron   *cron.Cron

	refreshEvery time.Duration
	tickEvery    time.Duration
}

// New creates a poller; Start registers and starts the jobs.
func New(source Source, sink Sink, log *zap.Logger, refreshEvery, tickEvery time.Duration) *Poller {
	return &Poller{
		source:       source,
		sink:         sink,
		log:          log,
		cron:         cron.New(cron.WithSeconds()),
		refreshEvery: refreshEvery,
		tickEvery:    tickEvery,
	}
}

// Start schedules both jobs and runs an immediate first refresh so clients do
// not wait a full interval for their first snapshot.
func (p *Poller) Start() error {
	skip := cron.NewChain(cron.SkipIfStillRunning(cron.PrintfLogger(zap.NewStdLog(p.log))))
	refresh := skip.Then(cron.FuncJob(func() { p.Refresh(context.Background()) }))
	if _, err := p.cron.AddJob(fmt.Sprintf("@every %s", p.refreshEvery), refresh); err != nil {
		return err
	}
	if _, err := p.cron.AddFunc(fmt.Sprintf("@every %s", p.tickEvery), p.tick); err != nil {
		return err
	}

	// The startup refresh goes through the same wrapped job so a slow first
	// fetch is not overlapped by the first scheduled run.
	go refresh.Run()
	p.cron.Start()
	p.log.Info("auction polling started",
		zap.Duration("refresh_every", p.refreshEvery),
		zap.Duration("tick_every", p.tickEvery))
	return nil
}

// Stop cancels both jobs and waits for a running refresh to drain.
func (p *Poller) Stop() {
	<-p.cron.Stop().Done()
	p.log.Info("auction polling stopped")
}

// Refresh fetches one snapshot and hands it to the sink. A failed fetch is
// logged and dropped; the next scheduled tick retries.
func (p *Poller) Refresh(ctx context.Context) {
	snapshot, err := p.source.LiveAuctions(ctx)
	if err != nil {
		p.log.Warn("auction refresh failed", zap.Error(err))
		return
	}
	p.sink.BroadcastAuctions(snapshot)
}

func (p *Poller) tick() {
	p.sink.BroadcastTick(time.Now())
}
