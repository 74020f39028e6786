package analysis

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"komisearch/internal/domain"
	"komisearch/internal/domain/position"
	errs "komisearch/internal/errors"
)

// stoneOracle is even at komi 7 on an empty board, and each black stone is worth
// 10 points.
type stoneOracle struct {
	missing string
}

func (s stoneOracle) Query(_ context.Context, p position.Position, komi float64) (domain.RootInfo, error) {
	if s.missing != "" && p.Printable() == s.missing {
		return domain.RootInfo{}, errs.ErrCacheMissReadOnly
	}
	target := 7.0
	for _, st := range p.Stones() {
		if st.Color == position.Black {
			target += 10
		} else {
			target -= 10
		}
	}
	wr := math.Max(0, math.Min(1, 0.5-0.01*(komi-target)))
	return domain.RootInfo{Winrate: wr, ScoreLead: target - komi}, nil
}

type staticResults []domain.Row

func (s staticResults) ListRows(_ context.Context, size int) ([]domain.Row, error) {
	var out []domain.Row
	for _, r := range s {
		if size == 0 || r.Size == size {
			out = append(out, r)
		}
	}
	return out, nil
}

type envelope[T any] struct {
	Status int
	Body   T
}

func newServer(t *testing.T, oracle stoneOracle, results ResultLister) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	NewAnalysisHandler(zaptest.NewLogger(t).Sugar(), oracle, results, 3).Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON[T any](t *testing.T, resp *http.Response) envelope[T] {
	t.Helper()
	defer resp.Body.Close()
	var out envelope[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, resp.StatusCode, out.Status)
	return out
}

func TestPositionsAndHandicaps(t *testing.T) {
	srv := newServer(t, stoneOracle{}, nil)

	resp, err := http.Get(srv.URL + "/handicaps")
	require.NoError(t, err)
	handicaps := getJSON[[]PositionView](t, resp)
	require.Equal(t, http.StatusOK, handicaps.Status)
	require.Len(t, handicaps.Body, len(position.Handicaps()))
	require.Equal(t, PositionView{Size: 9, Stones: "BG7 BC3 BG3 BC7 BE5", NumStones: 5}, handicaps.Body[len(handicaps.Body)-1])

	resp, err = http.Get(srv.URL + "/positions?size=3&stones=1")
	require.NoError(t, err)
	singles := getJSON[[]PositionView](t, resp)
	require.Len(t, singles.Body, 6)
	require.Equal(t, "BA1", singles.Body[0].Stones)

	for _, query := range []string{"size=3&stones=4", "size=0&stones=1", "size=9", "stones=1"} {
		resp, err = http.Get(srv.URL + "/positions?" + query)
		require.NoError(t, err)
		bad := getJSON[httpErr](t, resp)
		require.Equal(t, http.StatusBadRequest, bad.Status, query)
		require.NotEmpty(t, bad.Body.ErrorDescription)
	}
}

type httpErr struct {
	ErrorDescription string
}

func TestEstimate(t *testing.T) {
	srv := newServer(t, stoneOracle{missing: "WE5"}, nil)
	post := func(body string) *http.Response {
		resp, err := http.Post(srv.URL+"/estimate", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		return resp
	}

	got := getJSON[domain.Row](t, post(`{"size": 9, "stones": "BD4"}`))
	require.Equal(t, http.StatusOK, got.Status)
	require.Equal(t, 9, got.Body.Size)
	require.Equal(t, "BD4", got.Body.Stones)
	require.Equal(t, 1, got.Body.NumStones)
	require.Equal(t, 17.0, got.Body.Komi)
	require.Equal(t, 17.0, got.Body.Neural)
	require.Equal(t, 0.5, got.Body.Winrate)

	require.Equal(t, http.StatusNotFound, getJSON[httpErr](t, post(`{"size": 9, "stones": "WE5"}`)).Status)
	require.Equal(t, http.StatusBadRequest, getJSON[httpErr](t, post(`{"size": 9, "stones": "BZ4"}`)).Status)
	require.Equal(t, http.StatusBadRequest, getJSON[httpErr](t, post(`{"size": 9, "stones": "BD4 WD4"}`)).Status)
	require.Equal(t, http.StatusBadRequest, getJSON[httpErr](t, post(`{"size": 9, "moves": []}`)).Status)
	require.Equal(t, http.StatusBadRequest, getJSON[httpErr](t, post(`not json`)).Status)
}

func TestResults(t *testing.T) {
	resp, err := http.Get(newServer(t, stoneOracle{}, nil).URL + "/results")
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, getJSON[httpErr](t, resp).Status)

	rows := staticResults{
		{Size: 9, Stones: "BA1", NumStones: 1, Estimate: domain.Estimate{Komi: 2.5}},
		{Size: 19, Stones: "", Estimate: domain.Estimate{Komi: 7}},
	}
	srv := newServer(t, stoneOracle{}, rows)

	resp, err = http.Get(srv.URL + "/results?size=19")
	require.NoError(t, err)
	got := getJSON[[]domain.Row](t, resp)
	require.Len(t, got.Body, 1)
	require.Equal(t, 7.0, got.Body[0].Komi)

	resp, err = http.Get(srv.URL + "/results")
	require.NoError(t, err)
	require.Len(t, getJSON[[]domain.Row](t, resp).Body, 2)

	resp, err = http.Get(srv.URL + "/results?size=nine")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, getJSON[httpErr](t, resp).Status)
}

func dialSearch(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/search?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSearchStream(t *testing.T) {
	t.Run("rows arrive in enumeration order", func(t *testing.T) {
		conn := dialSearch(t, newServer(t, stoneOracle{}, nil), "size=4&stones=1")

		want := position.AllWithNStones(1, 4)
		for _, p := range want {
			var msg SearchMessage
			require.NoError(t, conn.ReadJSON(&msg))
			require.NotNil(t, msg.Row)
			require.Equal(t, p.Printable(), msg.Row.Stones)
		}
		var done SearchMessage
		require.NoError(t, conn.ReadJSON(&done))
		require.True(t, done.Done)
		require.Equal(t, len(want), done.Rows)
	})

	t.Run("failures end the stream with an error", func(t *testing.T) {
		conn := dialSearch(t, newServer(t, stoneOracle{missing: "BA1"}, nil), "size=3&stones=1")

		var msg SearchMessage
		require.NoError(t, conn.ReadJSON(&msg))
		require.Nil(t, msg.Row)
		require.Contains(t, msg.Error, "Position(3, BA1)")
	})

	t.Run("bad parameters are refused before upgrade", func(t *testing.T) {
		srv := newServer(t, stoneOracle{}, nil)
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/search?size=3&stones=7"
		_, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
