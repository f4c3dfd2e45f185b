package payments

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Sandbox is a local Gateway approving every charge except those for the
// configured phone numbers.
type Sandbox struct {
	mu      sync.Mutex
	decline map[string]string
	charges []ChargeRequest
}

// NewSandbox returns a sandbox declining phones in decline with the mapped
// reason. An empty reason declines without one.
func NewSandbox(decline map[string]string) *Sandbox {
	d := make(map[string]string, len(decline))
	for k, v := range decline {
		d[k] = v
	}
	return &Sandbox{decline: d}
}

func (s *Sandbox) ChargeMobileMoney(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return ChargeResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.charges = append(s.charges, req)

	if reason, ok := s.decline[req.Phone]; ok {
		return ChargeResult{Status: StatusDeclined, Reason: reason}, nil
	}
	return ChargeResult{Status: StatusSuccess, TransactionID: uuid.NewString()}, nil
}

// Charges returns every request received so far.
func (s *Sandbox) Charges() []ChargeRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChargeRequest(nil), s.charges...)
}
