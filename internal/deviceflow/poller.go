package deviceflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/franciscosanchezn/gin-chat-auth/internal/credentials"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// Poller waits for the human side of a device flow to finish. It runs on the
// caller's goroutine and issues one request at a time.
type Poller struct {
	exchanger    Exchanger
	clock        clock.Clock
	slowDownStep time.Duration
	log          logrus.FieldLogger
}

type Option func(*Poller)

func WithClock(clk clock.Clock) Option {
	return func(p *Poller) {
		p.clock = clk
	}
}

func WithSlowDownStep(step time.Duration) Option {
	return func(p *Poller) {
		p.slowDownStep = step
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Poller) {
		p.log = log
	}
}

func NewPoller(exchanger Exchanger, opts ...Option) *Poller {
	p := &Poller{
		exchanger:    exchanger,
		clock:        clock.RealClock{},
		slowDownStep: DefaultSlowDownStep,
		log:          logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll exchanges the device code until the server reports an outcome, the
// registration lifetime runs out or ctx is cancelled. Every attempt is
// preceded by a full interval.
func (p *Poller) Poll(ctx context.Context, reg Registration) (*credentials.Credential, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	interval := reg.IntervalDuration()
	deadline := p.clock.Now().Add(reg.Lifetime())

	for attempt := 1; ; attempt++ {
		remaining := deadline.Sub(p.clock.Now())
		if remaining <= 0 {
			return nil, ErrTimeout
		}
		if interval > remaining {
			// No attempt fits before the deadline
			if err := p.sleep(ctx, remaining); err != nil {
				return nil, err
			}
			return nil, ErrTimeout
		}
		if err := p.sleep(ctx, interval); err != nil {
			return nil, err
		}

		result, err := p.exchanger.ExchangeDeviceCode(ctx, reg.DeviceCode)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, ErrProtocol) {
				return nil, err
			}
			p.log.WithError(err).WithField("attempt", attempt).Debug("Token poll failed, retrying")
			continue
		}

		switch r := result.(type) {
		case Success:
			if r.Credential == nil || r.Credential.AccessToken == "" {
				return nil, fmt.Errorf("%w: success response without access_token", ErrProtocol)
			}
			return r.Credential, nil
		case Pending:
			p.log.WithField("attempt", attempt).Debug("Authorization pending")
		case SlowDown:
			interval += p.slowDownStep
			p.log.WithField("interval", interval).Debug("Server asked to slow down")
		case Denied:
			return nil, ErrAccessDenied
		case Expired:
			return nil, ErrExpiredToken
		case OtherError:
			return nil, &ServerError{Code: r.Code, Description: r.Description}
		default:
			return nil, fmt.Errorf("%w: unexpected result %T", ErrProtocol, result)
		}
	}
}

func (p *Poller) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := p.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}
