package payments

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/appstate/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName  = "payments.v1.MobileMoneyService"
	ChargeMethod = "/" + ServiceName + "/Charge"
)

// GRPCGateway calls a remote mobile-money service. Requests and replies are
// google.protobuf.Struct documents.
type GRPCGateway struct {
	conn   grpc.ClientConnInterface
	closer func() error
}

// DialGRPC creates a client for the gateway at endpoint.
func DialGRPC(endpoint string, opts ...grpc.DialOption) (*GRPCGateway, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway client: %w", err)
	}
	return &GRPCGateway{conn: conn, closer: conn.Close}, nil
}

// NewGRPCGateway wraps an existing connection. Close leaves it open.
func NewGRPCGateway(conn grpc.ClientConnInterface) *GRPCGateway {
	return &GRPCGateway{conn: conn}
}

func (g *GRPCGateway) ChargeMobileMoney(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	in, err := structpb.NewStruct(map[string]any{
		"provider":    req.Provider,
		"countryCode": req.CountryCode,
		"phone":       req.Phone,
		"amount":      req.Amount,
		"currency":    req.Currency,
		"description": req.Description,
		"reference":   req.Reference,
	})
	if err != nil {
		return ChargeResult{}, fmt.Errorf("failed to encode charge: %w", err)
	}

	out := &structpb.Struct{}
	if err := g.conn.Invoke(ctx, ChargeMethod, in, out); err != nil {
		return ChargeResult{}, mapError(err)
	}

	fields := out.GetFields()
	res := ChargeResult{
		Status:        ChargeStatus(fields["status"].GetStringValue()),
		Reason:        fields["reason"].GetStringValue(),
		TransactionID: fields["transactionId"].GetStringValue(),
	}
	switch res.Status {
	case StatusSuccess, StatusDeclined:
		return res, nil
	}
	return ChargeResult{}, fmt.Errorf("%w: unexpected charge status %q", common.ErrMalformedData, res.Status)
}

// Close releases the connection when the gateway dialed it.
func (g *GRPCGateway) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer()
}

func mapError(err error) error {
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", common.ErrGatewayUnavailable, st.Message())
	case codes.ResourceExhausted:
		return fmt.Errorf("%w: %s", common.ErrRateLimited, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
