package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/appstate/internal/common"
	"github.com/dmitrijs2005/appstate/internal/logging"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// GuardOptions tunes Guarded. Zero values take the defaults below.
type GuardOptions struct {
	// Timeout bounds a single charge call. Default 15s.
	Timeout time.Duration
	// MaxFailures is the number of consecutive transport failures that opens
	// the breaker. Default 3.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open. Default 30s.
	OpenTimeout time.Duration
	// ChargesPerMinute caps charge attempts. Zero disables the limit.
	ChargesPerMinute int
}

func (o GuardOptions) withDefaults() GuardOptions {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.MaxFailures == 0 {
		o.MaxFailures = 3
	}
	if o.OpenTimeout <= 0 {
		o.OpenTimeout = 30 * time.Second
	}
	return o
}

// Guarded protects a Gateway with a timeout, a circuit breaker and a rate
// limiter. Declines are successful calls as far as the breaker is concerned.
type Guarded struct {
	next    Gateway
	cb      *gobreaker.CircuitBreaker[ChargeResult]
	limiter *rate.Limiter
	timeout time.Duration
	log     logging.Logger
}

func NewGuarded(next Gateway, opts GuardOptions, log logging.Logger) *Guarded {
	opts = opts.withDefaults()
	log = logging.OrNop(log).With("component", "payments")

	limit := rate.Inf
	burst := 0
	if opts.ChargesPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.ChargesPerMinute))
		burst = opts.ChargesPerMinute
	}

	g := &Guarded{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		timeout: opts.Timeout,
		log:     log,
	}
	g.cb = gobreaker.NewCircuitBreaker[ChargeResult](gobreaker.Settings{
		Name:        "mobile-money",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn(context.Background(), "circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return g
}

func (g *Guarded) ChargeMobileMoney(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if !g.limiter.Allow() {
		g.log.Warn(ctx, "charge rate limited", "reference", req.Reference)
		return ChargeResult{}, common.ErrRateLimited
	}

	res, err := g.cb.Execute(func() (ChargeResult, error) {
		ctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return g.next.ChargeMobileMoney(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ChargeResult{}, fmt.Errorf("%w: %v", common.ErrGatewayUnavailable, err)
	}
	return res, err
}

// State reports the breaker state, e.g. "closed" or "open".
func (g *Guarded) State() string {
	return g.cb.State().String()
}
