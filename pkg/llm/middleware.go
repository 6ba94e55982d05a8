package llm

import (
	"context"
	"time"

	"chengyu-bot-go/pkg/log"
)

// loggingProvider 为每次调用记录一条结构化日志。
type loggingProvider struct {
	inner Provider
}

// WithLogging wraps a Provider with request logging.
func WithLogging(p Provider) Provider {
	return &loggingProvider{inner: p}
}

func (l *loggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	fields := []interface{}{
		"purpose", PurposeFrom(ctx),
		"model", l.inner.ModelID(),
		"messages", len(req.Messages),
		"latencyMs", time.Since(start).Milliseconds(),
	}
	if err != nil {
		log.Warnw("LLM request failed", append(fields, "rateLimited", IsRateLimited(err), "error", err)...)
		return nil, err
	}
	log.Infow("LLM request", append(fields,
		"inputTokens", resp.Usage.InputTokens,
		"outputTokens", resp.Usage.OutputTokens,
		"stopReason", resp.StopReason,
	)...)
	return resp, nil
}

func (l *loggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// timeoutProvider 给每次调用加上超时，超时按普通失败返回。
type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout bounds every Generate call. d <= 0 returns p unchanged.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &timeoutProvider{inner: p, timeout: d}
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	resp, err := t.inner.Generate(ctx, req)
	if err != nil && ctx.Err() != nil {
		return nil, &ErrProviderUnavailable{Provider: t.inner.ModelID(), Err: ctx.Err()}
	}
	return resp, err
}

func (t *timeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
