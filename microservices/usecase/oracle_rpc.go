package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"komisearch/internal/domain"
	"komisearch/internal/domain/position"
	errs "komisearch/internal/errors"
	"komisearch/microservices/rpc"
)

type OracleStore interface {
	Query(ctx context.Context, p position.Position, komi float64) (domain.RootInfo, error)
}

type OracleUseCase struct {
	store OracleStore
	log   *zap.SugaredLogger
}

func NewOracleUseCase(store OracleStore, log *zap.SugaredLogger) *OracleUseCase {
	return &OracleUseCase{
		store: store,
		log:   log,
	}
}

func (o *OracleUseCase) Query(ctx context.Context, in *rpc.QueryRequest) (*rpc.QueryReply, error) {
	p, err := ConvertRPCQueryToDomain(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	root, err := o.store.Query(ctx, p, in.Komi)
	if err != nil {
		o.log.Errorw("oracle query failed", "position", p.String(), "komi", in.Komi, "error", err)
		switch {
		case errors.Is(err, errs.ErrCacheMissReadOnly):
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, status.FromContextError(err).Err()
		default:
			return nil, status.Error(codes.Internal, err.Error())
		}
	}

	return &rpc.QueryReply{
		ScoreLead: root.ScoreLead,
		Winrate:   root.Winrate,
	}, nil
}

// ConvertRPCQueryToDomain rebuilds the position, keeping stone order since it is
// part of the cache key.
func ConvertRPCQueryToDomain(in *rpc.QueryRequest) (position.Position, error) {
	if in.BoardSize < 1 || in.BoardSize > position.MaxBoardSize {
		return position.Position{}, fmt.Errorf("board size %d out of range", in.BoardSize)
	}
	stones := make([]position.Stone, 0, len(in.Stones))
	seen := make(map[[2]int]bool, len(in.Stones))
	for _, s := range in.Stones {
		color, err := position.ParseColor(s.Color)
		if err != nil {
			return position.Position{}, err
		}
		if s.X < 0 || s.Y < 0 || s.X >= in.BoardSize || s.Y >= in.BoardSize {
			return position.Position{}, fmt.Errorf("%w: (%d, %d) is off the board", errs.ErrBadStone, s.X, s.Y)
		}
		if seen[[2]int{s.X, s.Y}] {
			return position.Position{}, fmt.Errorf("%w: (%d, %d) is occupied twice", errs.ErrBadStone, s.X, s.Y)
		}
		seen[[2]int{s.X, s.Y}] = true
		stones = append(stones, position.Stone{Color: color, X: s.X, Y: s.Y})
	}
	return position.New(in.BoardSize, stones...), nil
}
