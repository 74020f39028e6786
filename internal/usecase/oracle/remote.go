package oracle

import (
	"context"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"komisearch/internal/domain"
	"komisearch/internal/domain/position"
	errs "komisearch/internal/errors"
	"komisearch/microservices/rpc"
)

// Remote answers queries through the oracle service, which owns the engine
// and the cache.
type Remote struct {
	client rpc.OracleServiceClient
}

func NewRemote(client rpc.OracleServiceClient) *Remote {
	return &Remote{client: client}
}

func ConvertDomainPositionToRPC(p position.Position, komi float64) *rpc.QueryRequest {
	stones := p.Stones()
	out := make([]rpc.Stone, len(stones))
	for i, s := range stones {
		out[i] = rpc.Stone{Color: s.Color.String(), X: s.X, Y: s.Y}
	}
	return &rpc.QueryRequest{BoardSize: p.Size(), Stones: out, Komi: komi}
}

func (r *Remote) Query(ctx context.Context, p position.Position, komi float64) (domain.RootInfo, error) {
	reply, err := r.client.Query(ctx, ConvertDomainPositionToRPC(p, komi))
	if err != nil {
		if status.Code(err) == codes.FailedPrecondition {
			return domain.RootInfo{}, fmt.Errorf("%w: %s", errs.ErrCacheMissReadOnly, status.Convert(err).Message())
		}
		return domain.RootInfo{}, fmt.Errorf("oracle service: %w", err)
	}
	return domain.RootInfo{ScoreLead: reply.ScoreLead, Winrate: reply.Winrate}, nil
}
