package deviceflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/franciscosanchezn/gin-chat-auth/internal/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

var pollStart = time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

type step struct {
	result Result
	err    error
}

// scriptedExchanger replays a fixed sequence of exchange outcomes and records
// the fake time of every call. Once the script runs out it keeps answering
// Pending.
type scriptedExchanger struct {
	mu     sync.Mutex
	clock  *clocktesting.FakeClock
	script []step
	calls  []time.Duration
	onCall func(n int)
}

func (e *scriptedExchanger) ExchangeDeviceCode(ctx context.Context, deviceCode string) (Result, error) {
	e.mu.Lock()
	n := len(e.calls)
	e.calls = append(e.calls, e.clock.Since(pollStart))
	var s step
	if n < len(e.script) {
		s = e.script[n]
	} else {
		s = step{result: Pending{}}
	}
	onCall := e.onCall
	e.mu.Unlock()

	if onCall != nil {
		onCall(n + 1)
	}
	return s.result, s.err
}

func (e *scriptedExchanger) callTimes() []time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]time.Duration(nil), e.calls...)
}

// advanceWhileWaiting moves the fake clock one second at a time whenever the
// poller is blocked on a timer, so elapsed fake time is exact.
func advanceWhileWaiting(t *testing.T, clk *clocktesting.FakeClock) {
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			select {
			case <-done:
				return
			default:
			}
			if clk.HasWaiters() {
				clk.Step(time.Second)
			} else {
				time.Sleep(100 * time.Microsecond)
			}
		}
	}()
	t.Cleanup(func() {
		close(done)
		<-stopped
	})
}

func newTestPoller(t *testing.T, script ...step) (*Poller, *scriptedExchanger, *clocktesting.FakeClock) {
	clk := clocktesting.NewFakeClock(pollStart)
	exchanger := &scriptedExchanger{clock: clk, script: script}
	advanceWhileWaiting(t, clk)
	return NewPoller(exchanger, WithClock(clk)), exchanger, clk
}

func registration(expiresIn, interval int) Registration {
	return Registration{
		DeviceCode:      "device-code",
		UserCode:        "WDJB-MJHT",
		VerificationURI: "http://localhost:8080/device",
		ExpiresIn:       expiresIn,
		Interval:        interval,
	}
}

func success(token string) step {
	return step{result: Success{Credential: &credentials.Credential{AccessToken: token, TokenType: "Bearer"}}}
}

func TestPollPendingThenSuccess(t *testing.T) {
	poller, exchanger, clk := newTestPoller(t,
		step{result: Pending{}},
		step{result: Pending{}},
		step{result: Pending{}},
		success("token-1"),
	)

	cred, err := poller.Poll(context.Background(), registration(900, 5))
	require.NoError(t, err)
	assert.Equal(t, "token-1", cred.AccessToken)

	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second, 20 * time.Second}, exchanger.callTimes())
	assert.Equal(t, 20*time.Second, clk.Since(pollStart))
}

func TestPollNeverBeforeInterval(t *testing.T) {
	poller, exchanger, _ := newTestPoller(t,
		step{result: Pending{}},
		step{err: errors.New("connection reset")},
		step{result: Pending{}},
		success("token"),
	)

	_, err := poller.Poll(context.Background(), registration(900, 7))
	require.NoError(t, err)

	calls := exchanger.callTimes()
	require.Len(t, calls, 4)
	previous := time.Duration(0)
	for _, at := range calls {
		assert.GreaterOrEqual(t, at-previous, 7*time.Second)
		previous = at
	}
}

func TestPollSlowDownIncreasesInterval(t *testing.T) {
	poller, exchanger, _ := newTestPoller(t,
		step{result: SlowDown{}},
		step{result: Pending{}},
		step{result: SlowDown{}},
		success("token"),
	)

	_, err := poller.Poll(context.Background(), registration(900, 5))
	require.NoError(t, err)

	// 5s, then 10s twice, then 15s
	assert.Equal(t, []time.Duration{5 * time.Second, 15 * time.Second, 25 * time.Second, 40 * time.Second}, exchanger.callTimes())
}

func TestPollCustomSlowDownStep(t *testing.T) {
	clk := clocktesting.NewFakeClock(pollStart)
	exchanger := &scriptedExchanger{clock: clk, script: []step{{result: SlowDown{}}, success("token")}}
	advanceWhileWaiting(t, clk)
	poller := NewPoller(exchanger, WithClock(clk), WithSlowDownStep(2*time.Second))

	_, err := poller.Poll(context.Background(), registration(900, 5))
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{5 * time.Second, 12 * time.Second}, exchanger.callTimes())
}

func TestPollDenied(t *testing.T) {
	poller, exchanger, _ := newTestPoller(t, step{result: Denied{}})

	_, err := poller.Poll(context.Background(), registration(900, 5))
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Len(t, exchanger.callTimes(), 1)
}

func TestPollExpired(t *testing.T) {
	poller, _, _ := newTestPoller(t, step{result: Pending{}}, step{result: Expired{}})

	_, err := poller.Poll(context.Background(), registration(900, 5))
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestPollOtherError(t *testing.T) {
	poller, _, _ := newTestPoller(t, step{result: OtherError{Code: "invalid_grant", Description: "unknown device code"}})

	_, err := poller.Poll(context.Background(), registration(900, 5))
	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "invalid_grant", serverErr.Code)
	assert.Contains(t, err.Error(), "unknown device code")
}

func TestPollTimeout(t *testing.T) {
	poller, exchanger, clk := newTestPoller(t)

	_, err := poller.Poll(context.Background(), registration(12, 5))
	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrExpiredToken)

	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second}, exchanger.callTimes())
	assert.Equal(t, 12*time.Second, clk.Since(pollStart))
}

func TestPollTransientErrorsRetry(t *testing.T) {
	poller, exchanger, _ := newTestPoller(t,
		step{err: errors.New("dial tcp: connection refused")},
		step{err: errors.New("unexpected EOF")},
		success("token"),
	)

	cred, err := poller.Poll(context.Background(), registration(900, 5))
	require.NoError(t, err)
	assert.Equal(t, "token", cred.AccessToken)
	assert.Len(t, exchanger.callTimes(), 3)
}

func TestPollProtocolErrorIsFatal(t *testing.T) {
	poller, exchanger, _ := newTestPoller(t,
		step{err: errors.Join(ErrProtocol, errors.New("invalid character '<'"))},
		success("never reached"),
	)

	_, err := poller.Poll(context.Background(), registration(900, 5))
	assert.ErrorIs(t, err, ErrProtocol)
	assert.Len(t, exchanger.callTimes(), 1)
}

func TestPollSuccessWithoutToken(t *testing.T) {
	poller, _, _ := newTestPoller(t, step{result: Success{Credential: &credentials.Credential{}}})

	_, err := poller.Poll(context.Background(), registration(900, 5))
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestPollCancel(t *testing.T) {
	poller, exchanger, _ := newTestPoller(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	exchanger.onCall = func(n int) {
		if n == 2 {
			cancel()
		}
	}

	_, err := poller.Poll(ctx, registration(900, 5))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, exchanger.callTimes(), 2)
}

func TestPollRejectsBadRegistration(t *testing.T) {
	poller, exchanger, _ := newTestPoller(t)

	_, err := poller.Poll(context.Background(), Registration{UserCode: "X", VerificationURI: "u", ExpiresIn: 10})
	assert.ErrorIs(t, err, ErrProtocol)

	_, err = poller.Poll(context.Background(), registration(0, 5))
	assert.ErrorIs(t, err, ErrProtocol)
	assert.Empty(t, exchanger.callTimes())
}

func TestRegistrationDefaults(t *testing.T) {
	reg := registration(900, 0)
	assert.Equal(t, DefaultInterval, reg.IntervalDuration())
	assert.Equal(t, 15*time.Minute, reg.Lifetime())
	assert.Equal(t, reg.VerificationURI, reg.VerificationURL())

	reg.VerificationURIComplete = "http://localhost:8080/device?user_code=WDJB-MJHT"
	assert.Equal(t, reg.VerificationURIComplete, reg.VerificationURL())
}
