package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"komisearch/internal/bootstrap"
	"komisearch/internal/domain"
	errs "komisearch/internal/errors"
)

// Analysis replies for large boards run to a few hundred kilobytes.
const maxResponseLine = 16 << 20

// KatagoClient управляет процессом KataGo: пишет ему в stdin, читает из stdout.
// Exactly one request is in flight at a time.
type KatagoClient struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	writer *bufio.Writer
	lines  chan string
	mu     sync.Mutex
	broken error
	// replies still owed to requests whose callers stopped waiting
	abandoned int
	log       *zap.SugaredLogger
}

func GenerateUuid() string {
	return uuid.New().String()
}

// NewKatagoClient starts `katago analysis` as configured and checks that it
// answers version and model queries.
func NewKatagoClient(ctx context.Context, cfg *bootstrap.Config, log *zap.SugaredLogger) (*KatagoClient, error) {
	args := []string{"analysis", "-config", cfg.KatagoConfig, "-quit-without-waiting"}
	if cfg.KatagoModel != "" {
		args = append(args, "-model", cfg.KatagoModel)
	}
	cmd := exec.Command(cfg.KatagoPath, args...)
	cmd.Stderr = os.Stderr

	log.Infow("opening katago", "path", cfg.KatagoPath, "config", cfg.KatagoConfig)
	client, err := startKatagoClient(cmd, log)
	if err != nil {
		return nil, fmt.Errorf("failed to start katago: %w", err)
	}

	ver, err := client.QueryVersion(ctx)
	if err != nil {
		client.Close()
		return nil, err
	}
	log.Infow("katago program version", "version", ver.Version, "git_hash", ver.GitHash)

	models, err := client.QueryModels(ctx)
	if err != nil {
		client.Close()
		return nil, err
	}
	if len(models.Models) > 0 {
		log.Infow("katago model version", "model", models.Models[0].Name)
	}
	return client, nil
}

func startKatagoClient(cmd *exec.Cmd, log *zap.SugaredLogger) (*KatagoClient, error) {
	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	client := &KatagoClient{
		cmd:    cmd,
		stdin:  stdinPipe,
		writer: bufio.NewWriter(stdinPipe),
		lines:  make(chan string, 1),
		log:    log,
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	go client.listenForResponses(stdoutPipe)

	return client, nil
}

func (c *KatagoClient) listenForResponses(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64<<10), maxResponseLine)
	for scanner.Scan() {
		c.lines <- scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		c.log.Errorw("failed to read katago output", "error", err)
	}
	close(c.lines)
}

// Analyze writes one request line and blocks until its reply line. A caller
// that stops waiting leaves its reply owed; it is read and dropped before the
// next request is sent.
func (c *KatagoClient) Analyze(ctx context.Context, request string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken != nil {
		return "", c.broken
	}

	for c.abandoned > 0 {
		select {
		case _, ok := <-c.lines:
			if !ok {
				c.broken = errs.ErrOracleClosed
				return "", c.broken
			}
			c.abandoned--
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if _, err := c.writer.WriteString(request + "\n"); err != nil {
		c.broken = fmt.Errorf("%w: %v", errs.ErrOracleClosed, err)
		return "", c.broken
	}
	if err := c.writer.Flush(); err != nil {
		c.broken = fmt.Errorf("%w: %v", errs.ErrOracleClosed, err)
		return "", c.broken
	}

	select {
	case line, ok := <-c.lines:
		if !ok {
			c.broken = errs.ErrOracleClosed
			return "", c.broken
		}
		return line, nil
	case <-ctx.Done():
		c.abandoned++
		c.log.Warnw("abandoned katago request", "owed_replies", c.abandoned, "error", ctx.Err())
		return "", ctx.Err()
	}
}

func (c *KatagoClient) queryAction(ctx context.Context, action string, dst any) error {
	req, err := json.Marshal(domain.ActionRequest{ID: GenerateUuid(), Action: action})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	line, err := c.Analyze(ctx, string(req))
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	if err := json.Unmarshal([]byte(line), dst); err != nil {
		return fmt.Errorf("%w: %s: %v", errs.ErrMalformedResponse, action, err)
	}
	return nil
}

func (c *KatagoClient) QueryVersion(ctx context.Context) (domain.VersionResponse, error) {
	var resp domain.VersionResponse
	err := c.queryAction(ctx, "query_version", &resp)
	return resp, err
}

func (c *KatagoClient) QueryModels(ctx context.Context) (domain.ModelsResponse, error) {
	var resp domain.ModelsResponse
	err := c.queryAction(ctx, "query_models", &resp)
	return resp, err
}

// Close terminates the process and waits for it to exit.
func (c *KatagoClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken == nil {
		c.broken = errs.ErrOracleClosed
	}

	c.log.Info("closing katago")
	_ = c.stdin.Close()
	if c.cmd.Process != nil {
		_ = c.cmd.Process.Signal(syscall.SIGTERM)
	}
	// stdout must be read to EOF before Wait closes the pipe
	for range c.lines {
	}
	err := c.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// killed by our own SIGTERM
		return nil
	}
	return err
}
