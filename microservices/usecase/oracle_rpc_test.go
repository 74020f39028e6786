package usecase

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"komisearch/internal/domain"
	"komisearch/internal/domain/position"
	errs "komisearch/internal/errors"
	"komisearch/internal/usecase/estimate"
	"komisearch/internal/usecase/oracle"
	"komisearch/microservices/rpc"
)

// evenAt answers as if black needs `target` komi, and only knows komi values
// inside known when known is set.
type evenAt struct {
	target float64
	seen   []position.Position
	known  map[float64]bool
}

func (e *evenAt) Query(_ context.Context, p position.Position, komi float64) (domain.RootInfo, error) {
	e.seen = append(e.seen, p)
	if e.known != nil && !e.known[komi] {
		return domain.RootInfo{}, errs.ErrCacheMissReadOnly
	}
	wr := 0.5 - (komi-e.target)/400
	return domain.RootInfo{Winrate: wr, ScoreLead: e.target - komi}, nil
}

func dialBufconn(t *testing.T, store OracleStore) rpc.OracleServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	rpc.RegisterOracleServer(srv, NewOracleUseCase(store, zaptest.NewLogger(t).Sugar()))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return rpc.NewOracleServiceClient(conn)
}

func TestOracleService(t *testing.T) {
	ctx := context.Background()
	p := position.New(9, position.Stone{Color: position.White, X: 2, Y: 6}, position.Stone{Color: position.Black, X: 4, Y: 4})

	t.Run("query round trip keeps stone order", func(t *testing.T) {
		store := &evenAt{target: 4}
		remote := oracle.NewRemote(dialBufconn(t, store))

		got, err := remote.Query(ctx, p, 6.5)
		require.NoError(t, err)
		require.InDelta(t, -2.5, got.ScoreLead, 1e-9)
		require.Len(t, store.seen, 1)
		require.True(t, p.Equal(store.seen[0]))
	})

	t.Run("bisection runs over the wire", func(t *testing.T) {
		remote := oracle.NewRemote(dialBufconn(t, &evenAt{target: -8.2}))
		est, err := estimate.EstimateScore(ctx, remote, p)
		require.NoError(t, err)
		require.Equal(t, -8.0, est.Komi)
		require.InDelta(t, -8.2, est.Neural, 1e-9)
	})

	t.Run("read-only misses come back as cache misses", func(t *testing.T) {
		remote := oracle.NewRemote(dialBufconn(t, &evenAt{known: map[float64]bool{0: true}}))
		_, err := remote.Query(ctx, p, 0)
		require.NoError(t, err)
		_, err = remote.Query(ctx, p, 1)
		require.ErrorIs(t, err, errs.ErrCacheMissReadOnly)
	})

	t.Run("bad positions are rejected", func(t *testing.T) {
		client := dialBufconn(t, &evenAt{})
		_, err := client.Query(ctx, &rpc.QueryRequest{BoardSize: 9, Stones: []rpc.Stone{{Color: "B", X: 9, Y: 0}}})
		require.Equal(t, codes.InvalidArgument, status.Code(err))

		_, err = client.Query(ctx, &rpc.QueryRequest{BoardSize: 9, Stones: []rpc.Stone{{Color: "B", X: 1, Y: 1}, {Color: "W", X: 1, Y: 1}}})
		require.Equal(t, codes.InvalidArgument, status.Code(err))

		_, err = client.Query(ctx, &rpc.QueryRequest{BoardSize: 0})
		require.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}
