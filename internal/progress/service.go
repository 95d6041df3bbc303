package progress

import (
	"context"
	"encoding/json"
	"sync"

	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/cornellj834-lang/Lego-Adventure-App/internal/bus"
	"github.com/cornellj834-lang/Lego-Adventure-App/internal/protocol"
)

// Service exposes the save file on the bus: request/reply load, and
// fire-and-forget save and reset.
type Service struct {
	bus    *bus.Client
	store  *Store
	logger *slog.Logger

	subs   []*nats.Subscription
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewService(parent context.Context, busClient *bus.Client, store *Store, logger *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		bus:    busClient,
		store:  store,
		logger: logger.With(slog.String("component", "progress-service")),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Service) Start() error {
	subLoad, err := s.bus.Conn().Subscribe(protocol.SubjectProgressLoad, s.handleLoad)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, subLoad)

	subSave, err := s.bus.Conn().Subscribe(protocol.SubjectProgressSave, s.handleSave)
	if err != nil {
		s.drainSubs()
		return err
	}
	s.subs = append(s.subs, subSave)

	subReset, err := s.bus.Conn().Subscribe(protocol.SubjectProgressReset, s.handleReset)
	if err != nil {
		s.drainSubs()
		return err
	}
	s.subs = append(s.subs, subReset)
	return nil
}

func (s *Service) Close() {
	s.cancel()
	s.drainSubs()
	s.wg.Wait()
}

func (s *Service) Healthy() bool {
	return len(s.subs) == 3
}

func (s *Service) drainSubs() {
	for _, sub := range s.subs {
		_ = sub.Drain()
	}
}

func (s *Service) handleLoad(msg *nats.Msg) {
	if msg.Reply == "" {
		return
	}
	state := s.store.Load(s.ctx)
	payload, err := json.Marshal(state)
	if err != nil {
		return
	}
	if err := msg.Respond(payload); err != nil {
		s.logger.Warn("load reply failed", slog.String("error", err.Error()))
	}
}

func (s *Service) handleSave(msg *nats.Msg) {
	var state protocol.ProgressState
	if err := json.Unmarshal(msg.Data, &state); err != nil {
		s.logger.Warn("bad save request", slog.String("error", err.Error()))
		return
	}
	if err := s.store.Save(s.ctx, state); err != nil {
		s.logger.Warn("save failed", slog.String("error", err.Error()))
	}
}

func (s *Service) handleReset(_ *nats.Msg) {
	if err := s.store.Reset(s.ctx); err != nil {
		s.logger.Warn("reset failed", slog.String("error", err.Error()))
	}
}
