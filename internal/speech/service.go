package speech

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/cornellj834-lang/Lego-Adventure-App/internal/audio"
	"github.com/cornellj834-lang/Lego-Adventure-App/internal/bus"
	"github.com/cornellj834-lang/Lego-Adventure-App/internal/protocol"
)

// Service exposes the speech subsystem on the bus. The view layer publishes
// init, speak, stop, preload, and effect requests; the service answers with
// done notifications per utterance and talking-state broadcasts for the
// mascot animation.
type Service struct {
	bus        *bus.Client
	device     *audio.Device
	controller *Controller
	preloader  *Preloader
	warmup     []string
	logger     *slog.Logger

	subs   []*nats.Subscription
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewService(parent context.Context, busClient *bus.Client, device *audio.Device, controller *Controller, preloader *Preloader, warmup []string, logger *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		bus:        busClient,
		device:     device,
		controller: controller,
		preloader:  preloader,
		warmup:     warmup,
		logger:     logger.With(slog.String("component", "speech-service")),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (s *Service) Start() error {
	s.controller.OnTalking(s.publishTalking)

	for subject, handler := range map[string]nats.MsgHandler{
		protocol.SubjectSpeechInit:    s.handleInit,
		protocol.SubjectSpeechSpeak:   s.handleSpeak,
		protocol.SubjectSpeechStop:    s.handleStop,
		protocol.SubjectSpeechPreload: s.handlePreload,
		protocol.SubjectSpeechEffect:  s.handleEffect,
	} {
		sub, err := s.bus.Conn().Subscribe(subject, handler)
		if err != nil {
			s.drainSubs()
			return err
		}
		s.subs = append(s.subs, sub)
	}
	return nil
}

func (s *Service) Close() {
	s.cancel()
	s.drainSubs()
	s.wg.Wait()
}

func (s *Service) Healthy() bool {
	return len(s.subs) == 5
}

func (s *Service) drainSubs() {
	for _, sub := range s.subs {
		_ = sub.Drain()
	}
}

// handleInit runs on the first user gesture: it opens the output device,
// which platforms gate behind user interaction, and queues the core
// catalog lines for cache warm-up.
func (s *Service) handleInit(_ *nats.Msg) {
	if err := s.device.Start(); err != nil {
		s.logger.Warn("audio device unavailable, narration only",
			slog.String("error", err.Error()))
	}
	s.preloader.Enqueue(s.warmup...)
}

func (s *Service) handleSpeak(msg *nats.Msg) {
	var req protocol.SpeakRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("bad speak request", slog.String("error", err.Error()))
		return
	}
	if req.Text == "" {
		return
	}
	if req.Rate == 0 {
		req.Rate = 1
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		res, err := s.controller.Speak(s.ctx, req.Text, req.Rate)
		if err != nil && s.ctx.Err() == nil {
			s.logger.Warn("speak failed",
				slog.String("key", req.Key),
				slog.String("error", err.Error()))
		}
		s.publishDone(req.Key, res)
	}()
}

func (s *Service) handleStop(_ *nats.Msg) {
	s.controller.Stop()
}

func (s *Service) handlePreload(msg *nats.Msg) {
	var req protocol.PreloadRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("bad preload request", slog.String("error", err.Error()))
		return
	}
	if req.Text != "" {
		s.preloader.Enqueue(req.Text)
	}
}

func (s *Service) handleEffect(msg *nats.Msg) {
	var req protocol.EffectRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("bad effect request", slog.String("error", err.Error()))
		return
	}
	effect, err := audio.ParseEffect(req.Kind)
	if err != nil {
		s.logger.Warn("unknown effect", slog.String("kind", req.Kind))
		return
	}
	s.device.PlayEffect(effect)
}

func (s *Service) publishDone(key string, res Result) {
	payload, err := json.Marshal(protocol.SpeakDone{
		Key:       key,
		Played:    res.Played,
		Fallback:  res.Fallback,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if err := s.bus.Conn().Publish(protocol.SubjectSpeechDone, payload); err != nil {
		s.logger.Warn("publish done failed", slog.String("error", err.Error()))
	}
}

func (s *Service) publishTalking(talking bool) {
	payload, err := json.Marshal(protocol.TalkingState{
		Talking:   talking,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if err := s.bus.Conn().Publish(protocol.SubjectSpeechTalking, payload); err != nil {
		s.logger.Warn("publish talking failed", slog.String("error", err.Error()))
	}
}
