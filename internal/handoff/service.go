package handoff

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mohammed-shakir/career-locator/internal/core/observability"
	"github.com/mohammed-shakir/career-locator/internal/storesource"
)

// Forwarder records an application on the career API.
type Forwarder interface {
	SubmitApplication(ctx context.Context, app storesource.Application) error
}

type Options struct {
	ChatHost string
	// per-call timeout for the career API forward
	ForwardTimeout time.Duration
}

type Service struct {
	opts   Options
	pub    Publisher
	fwd    Forwarder
	logger *slog.Logger
	now    func() time.Time
	wg     sync.WaitGroup
}

// NewService wires a hand-off service. pub and fwd are each optional.
func NewService(logger *slog.Logger, pub Publisher, fwd Forwarder, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ChatHost == "" {
		opts.ChatHost = DefaultChatHost
	}
	if opts.ForwardTimeout <= 0 {
		opts.ForwardTimeout = 10 * time.Second
	}
	return &Service{opts: opts, pub: pub, fwd: fwd, logger: logger, now: time.Now}
}

// Start builds the session and returns it right away. Publishing and the API
// forward happen in the background and only ever log their failures.
func (s *Service) Start(ctx context.Context, req Request) (Session, error) {
	sess, err := NewSession(s.opts.ChatHost, req, s.now())
	if err != nil {
		return Session{}, err
	}
	s.logger.InfoContext(ctx, "handoff started",
		"event_id", sess.EventID,
		"company_id", sess.CompanyID,
		"job_id", sess.JobID,
		"store_id", sess.StoreID)

	if s.pub != nil {
		s.pub.Publish(sess)
	}
	if s.fwd != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.forward(context.WithoutCancel(ctx), sess)
		}()
	}
	observability.IncHandoff("start", nil)
	return sess, nil
}

func (s *Service) forward(ctx context.Context, sess Session) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ForwardTimeout)
	defer cancel()

	err := s.fwd.SubmitApplication(ctx, storesource.Application{
		CompanyID:     sess.CompanyID,
		StoreID:       sess.StoreID,
		PositionID:    sess.JobID,
		ApplicantData: sess.applicantData(),
		Source:        sess.Source,
		Language:      sess.Language,
		AppliedAt:     sess.Timestamp,
	})
	observability.IncHandoff("forward", err)
	if err != nil {
		s.logger.WarnContext(ctx, "handoff forward failed",
			"event_id", sess.EventID, "company_id", sess.CompanyID, "err", err)
	}
}

// Close waits for in-flight forwards and closes the publisher.
func (s *Service) Close() error {
	s.wg.Wait()
	if s.pub != nil {
		return s.pub.Close()
	}
	return nil
}
