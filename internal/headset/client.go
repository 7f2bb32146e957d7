package headset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Runner executes the device-control tool with the given arguments and
// returns its standard output.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// ExecRunner runs the tool as a subprocess.
// A zero Timeout waits for the process indefinitely.
type ExecRunner struct {
	Path    string
	Timeout time.Duration
}

// Run implements Runner
func (r *ExecRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.Path, args...)
	hideWindow(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %v", ErrToolFailed, r.Path, err)
	}
	if err := cmd.Wait(); err != nil {
		// A normal exit with a non-zero code still finished; stdout is usable
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.Exited() && ctx.Err() == nil {
			return stdout.Bytes(), fmt.Errorf("%w: %w: %s %v: %v: %s", ErrToolFailed, ErrExitStatus, r.Path, args, err, bytes.TrimSpace(stderr.Bytes()))
		}
		return stdout.Bytes(), fmt.Errorf("%w: %s %v: %v: %s", ErrToolFailed, r.Path, args, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}

// Client issues status queries and control commands through a Runner.
// Every spawn goes through a rate limiter so a burst of control changes
// cannot flood the tool with processes.
type Client struct {
	runner  Runner
	limiter *rate.Limiter
}

// NewClient creates a new Client. rateLimitRPS <= 0 disables rate limiting.
func NewClient(runner Runner, rateLimitRPS float64) *Client {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if rateLimitRPS > 0 {
		burst := int(rateLimitRPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rateLimitRPS), burst)
	}

	return &Client{
		runner:  runner,
		limiter: limiter,
	}
}

// Status queries the tool for the current device state.
// Failures are folded into a NoDevice result. A tool that finished with a
// non-zero exit code is still parsed when it printed something.
func (c *Client) Status(ctx context.Context) Result {
	out, err := c.run(ctx, "-o", "json")
	if err != nil && (!errors.Is(err, ErrExitStatus) || len(bytes.TrimSpace(out)) == 0) {
		return NoDevice(err)
	}

	snapshot, perr := ParseStatus(out)
	if perr != nil {
		if err != nil {
			return NoDevice(err)
		}
		return NoDevice(perr)
	}
	return Found(snapshot)
}

// SetLED switches the headset lights on or off
func (c *Client) SetLED(ctx context.Context, on bool) error {
	value := "0"
	if on {
		value = "1"
	}
	_, err := c.run(ctx, "-l", value)
	return err
}

// SetSidetone sets the sidetone level
func (c *Client) SetSidetone(ctx context.Context, level int) error {
	_, err := c.run(ctx, "-s", strconv.Itoa(level))
	return err
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	out, err := c.runner.Run(ctx, args...)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Debug().Err(err).Strs("args", args).Msg("headsetcontrol command failed")
	}
	return out, err
}
