package kafka

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// ConsumerHook runs around every handling attempt. An error from Before
// fails the attempt without calling the handler.
type ConsumerHook interface {
	Before(ctx context.Context, km kafka.Message) (context.Context, error)
	After(ctx context.Context, km kafka.Message, err error)
}

// HookFuncs builds a ConsumerHook from optional functions.
type HookFuncs struct {
	BeforeFunc func(context.Context, kafka.Message) (context.Context, error)
	AfterFunc  func(context.Context, kafka.Message, error)
}

func (h HookFuncs) Before(ctx context.Context, km kafka.Message) (context.Context, error) {
	if h.BeforeFunc == nil {
		return ctx, nil
	}
	return h.BeforeFunc(ctx, km)
}

func (h HookFuncs) After(ctx context.Context, km kafka.Message, err error) {
	if h.AfterFunc != nil {
		h.AfterFunc(ctx, km, err)
	}
}

type ctxKey int

const (
	ctxStartTime ctxKey = iota
	ctxTraceID
)

const traceHeader = "trace_id"

func WithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ctxStartTime, t)
}

// StartTime is when the current handling attempt began.
func StartTime(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(ctxStartTime).(time.Time)
	return t, ok
}

// WithTraceID sets the correlation id; an empty id leaves ctx unchanged.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxTraceID, traceID)
}

func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(ctxTraceID).(string)
	return id
}

// ExtractTraceID reads the trace_id header.
func ExtractTraceID(km kafka.Message) string {
	for _, h := range km.Headers {
		if h.Key == traceHeader && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	return ""
}

// TraceHook stamps each attempt with a start time and a trace id taken
// from the trace_id header, or a fresh UUID when the header is absent.
func TraceHook() ConsumerHook {
	return HookFuncs{
		BeforeFunc: func(ctx context.Context, km kafka.Message) (context.Context, error) {
			id := ExtractTraceID(km)
			if id == "" {
				id = uuid.NewString()
			}
			return WithTraceID(WithStartTime(ctx, time.Now()), id), nil
		},
	}
}
