// Package oracle answers (position, komi) queries from the in-process memo, the
// persistent cache or, when calculation is enabled, a live KataGo engine.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"komisearch/internal/domain"
	"komisearch/internal/domain/position"
	errs "komisearch/internal/errors"
)

// Rules is fixed to japanese so that single point komi differences matter.
const Rules = "japanese"

const callsPerReport = 1000

type Engine interface {
	Analyze(ctx context.Context, request string) (string, error)
}

type Store interface {
	Get(ctx context.Context, request string) (response string, ok bool, err error)
	Put(ctx context.Context, request, response string) error
}

type Oracle struct {
	engine Engine
	store  Store
	log    *zap.SugaredLogger
	calc   bool

	group singleflight.Group
	mu    sync.Mutex
	memo  map[string]string

	calls     int
	startedAt time.Time
}

// New builds an oracle. engine may be nil when calc is false.
func New(engine Engine, store Store, log *zap.SugaredLogger, calc bool) *Oracle {
	return &Oracle{
		engine:    engine,
		store:     store,
		log:       log,
		calc:      calc && engine != nil,
		memo:      make(map[string]string),
		startedAt: time.Now(),
	}
}

func (o *Oracle) CalcEnabled() bool {
	return o.calc
}

// BuildRequest is the deterministic analysis request for p at the given komi.
// The position's String form doubles as the request id.
func BuildRequest(p position.Position, komi float64) domain.AnalysisRequest {
	stones := p.Stones()
	initial := make([][2]string, len(stones))
	for i, s := range stones {
		initial[i] = [2]string{s.Color.String(), s.Vertex()}
	}
	return domain.AnalysisRequest{
		ID:               p.String(),
		InitialStones:    initial,
		Moves:            [][2]string{},
		Rules:            Rules,
		Komi:             komi,
		OverrideSettings: map[string]string{},
		BoardXSize:       p.Size(),
		BoardYSize:       p.Size(),
	}
}

func (o *Oracle) Query(ctx context.Context, p position.Position, komi float64) (domain.RootInfo, error) {
	req, err := json.Marshal(BuildRequest(p, komi))
	if err != nil {
		return domain.RootInfo{}, fmt.Errorf("failed to marshal request: %w", err)
	}
	line, err := o.Raw(ctx, string(req))
	if err != nil {
		return domain.RootInfo{}, err
	}
	resp, err := parseResponse(line)
	if err != nil {
		return domain.RootInfo{}, err
	}
	return *resp.RootInfo, nil
}

// Raw returns the reply line for an exact request line.
func (o *Oracle) Raw(ctx context.Context, request string) (string, error) {
	o.mu.Lock()
	line, ok := o.memo[request]
	o.mu.Unlock()
	if ok {
		return line, nil
	}

	// the shared lookup outlives any single caller; each caller may stop waiting
	shared := context.WithoutCancel(ctx)
	ch := o.group.DoChan(request, func() (any, error) {
		line, err := o.lookup(shared, request)
		if err != nil {
			return "", err
		}
		o.mu.Lock()
		o.memo[request] = line
		o.mu.Unlock()
		return line, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (o *Oracle) lookup(ctx context.Context, request string) (string, error) {
	line, ok, err := o.store.Get(ctx, request)
	if err != nil {
		return "", fmt.Errorf("failed to read cache: %w", err)
	}
	if ok {
		return line, nil
	}

	if !o.calc {
		return "", fmt.Errorf("%w: %s", errs.ErrCacheMissReadOnly, request)
	}

	line, err = o.engine.Analyze(ctx, request)
	if err != nil {
		return "", fmt.Errorf("katago query failed: %w", err)
	}
	o.countCall()

	// error replies are not cached: a fixed engine should get another chance
	if _, err := parseResponse(line); err != nil {
		return "", err
	}
	if err := o.store.Put(ctx, request, line); err != nil {
		return "", fmt.Errorf("failed to write cache: %w", err)
	}
	return line, nil
}

func (o *Oracle) countCall() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	if o.calls%callsPerReport == 0 {
		avg := time.Since(o.startedAt) / time.Duration(o.calls)
		o.log.Infow("katago calls", "calls", o.calls, "avg_per_call", avg.String())
	}
}

// Calls is the number of requests that reached the engine.
func (o *Oracle) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

func parseResponse(line string) (domain.AnalysisResponse, error) {
	var resp domain.AnalysisResponse
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return resp, fmt.Errorf("%w: %v", errs.ErrMalformedResponse, err)
	}
	if resp.Error != "" {
		return resp, fmt.Errorf("%w: katago error %q (field %q)", errs.ErrMalformedResponse, resp.Error, resp.Field)
	}
	if resp.RootInfo == nil {
		return resp, fmt.Errorf("%w: no rootInfo in reply", errs.ErrMalformedResponse)
	}
	return resp, nil
}
