package analysis

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"komisearch/internal/domain"
	"komisearch/internal/domain/position"
	errs "komisearch/internal/errors"
	"komisearch/internal/httpresponse"
	"komisearch/internal/usecase/estimate"
	"komisearch/internal/usecase/search"
	"komisearch/internal/utils"
)

// MaxListedStones bounds /positions and /ws/search; larger sets take too long to
// enumerate inside a request.
const MaxListedStones = 3

type ResultLister interface {
	ListRows(ctx context.Context, size int) ([]domain.Row, error)
}

type EstimateRequest struct {
	Size   int    `json:"size"`
	Stones string `json:"stones"`
}

type PositionView struct {
	Size      int    `json:"size"`
	Stones    string `json:"stones"`
	NumStones int    `json:"num_stones"`
}

// SearchMessage is one websocket frame of /ws/search: a row, the final summary
// or an error.
type SearchMessage struct {
	Row   *domain.Row `json:"row,omitempty"`
	Done  bool        `json:"done,omitempty"`
	Rows  int         `json:"rows,omitempty"`
	Error string      `json:"error,omitempty"`
}

type AnalysisHandler struct {
	log     *zap.SugaredLogger
	oracle  estimate.Oracle
	results ResultLister
	workers int
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewAnalysisHandler serves estimates from oracle. results may be nil when no
// database is configured.
func NewAnalysisHandler(log *zap.SugaredLogger, oracle estimate.Oracle, results ResultLister, workers int) *AnalysisHandler {
	return &AnalysisHandler{
		log:     log,
		oracle:  oracle,
		results: results,
		workers: workers,
	}
}

func (h *AnalysisHandler) Routes(r chi.Router) {
	r.Get("/positions", h.HandlePositions)
	r.Get("/handicaps", h.HandleHandicaps)
	r.Post("/estimate", h.HandleEstimate)
	r.Get("/results", h.HandleResults)
	r.Get("/ws/search", h.HandleSearch)
}

func views(positions []position.Position) []PositionView {
	out := make([]PositionView, len(positions))
	for i, p := range positions {
		out[i] = PositionView{Size: p.Size(), Stones: p.Printable(), NumStones: p.Len()}
	}
	return out
}

// sizeAndStones reads the size and stones query parameters.
func sizeAndStones(r *http.Request) (int, int, error) {
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size < 1 || size > position.MaxBoardSize {
		return 0, 0, errors.New("size must be a board size between 1 and 25")
	}
	n, err := strconv.Atoi(r.URL.Query().Get("stones"))
	if err != nil || n < 0 || n > MaxListedStones || n > size*size {
		return 0, 0, errors.New("stones must be between 0 and " + strconv.Itoa(MaxListedStones))
	}
	return size, n, nil
}

func (h *AnalysisHandler) HandlePositions(w http.ResponseWriter, r *http.Request) {
	size, n, err := sizeAndStones(r)
	if err != nil {
		httpresponse.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, views(position.AllWithNStones(n, size)))
}

func (h *AnalysisHandler) HandleHandicaps(w http.ResponseWriter, r *http.Request) {
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, views(position.Handicaps()))
}

func (h *AnalysisHandler) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		httpresponse.WriteError(w, http.StatusBadRequest, httpresponse.MALFORMEDJSON_errorDesc)
		return
	}

	p, err := position.ParsePosition(req.Size, req.Stones)
	if err != nil {
		httpresponse.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	est, err := estimate.EstimateScore(r.Context(), h.oracle, p)
	switch {
	case errors.Is(err, errs.ErrCacheMissReadOnly):
		httpresponse.WriteError(w, http.StatusNotFound, "position is not in the cache and katago is disabled")
		return
	case err != nil:
		h.log.Errorw("estimate failed", "position", p.String(), "error", err)
		httpresponse.WriteInternalErrorResponse(w)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, search.NewRow(p, est, false))
}

func (h *AnalysisHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	if h.results == nil {
		httpresponse.WriteError(w, http.StatusServiceUnavailable, "no results database configured")
		return
	}
	size := 0
	if s := r.URL.Query().Get("size"); s != "" {
		var err error
		if size, err = strconv.Atoi(s); err != nil {
			httpresponse.WriteError(w, http.StatusBadRequest, "size must be a number")
			return
		}
	}
	rows, err := h.results.ListRows(r.Context(), size)
	if err != nil {
		h.log.Errorw("failed to list results", "size", size, "error", err)
		httpresponse.WriteInternalErrorResponse(w)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, rows)
}

// HandleSearch estimates every canonical position of one (size, stones) set and
// streams the rows in enumeration order. Closing the socket stops the search.
func (h *AnalysisHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	size, n, err := sizeAndStones(r)
	if err != nil {
		httpresponse.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorw("upgrade error", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	positions := position.AllWithNStones(n, size)
	driver := search.NewDriver(h.oracle, h.log, h.workers, nil)
	sent := 0
	err = driver.Batch(ctx, r.URL.RawQuery, positions, false, func(row domain.Row) error {
		sent++
		return conn.WriteJSON(SearchMessage{Row: &row})
	})
	if err != nil {
		h.log.Errorw("search failed", "size", size, "stones", n, "error", err)
		_ = conn.WriteJSON(SearchMessage{Error: err.Error()})
		return
	}
	_ = conn.WriteJSON(SearchMessage{Done: true, Rows: sent})
}
