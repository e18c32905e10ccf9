package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
	toolx "github.com/tanpawarit/meal-planner-agent/agent/tool"
)

const (
	defaultCallTimeout   = 90 * time.Second
	defaultMaxToolRounds = 8
)

var _ contractx.Oracle = (*ChatOracle)(nil)

// ChatOracle completes a single user prompt. Tool calls requested by the
// model are executed in-process and fed back until the model answers with
// plain content.
type ChatOracle struct {
	model         einomodel.ToolCallingChatModel
	callTimeout   time.Duration
	maxToolRounds int
}

type OracleOption func(*ChatOracle)

// WithCallTimeout bounds each Complete call. Zero disables the deadline.
func WithCallTimeout(d time.Duration) OracleOption {
	return func(o *ChatOracle) {
		if d >= 0 {
			o.callTimeout = d
		}
	}
}

func WithMaxToolRounds(n int) OracleOption {
	return func(o *ChatOracle) {
		if n > 0 {
			o.maxToolRounds = n
		}
	}
}

func NewChatOracle(m einomodel.ToolCallingChatModel, opts ...OracleOption) (*ChatOracle, error) {
	if m == nil {
		return nil, errors.New("chat model is required")
	}
	o := &ChatOracle{
		model:         m,
		callTimeout:   defaultCallTimeout,
		maxToolRounds: defaultMaxToolRounds,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o, nil
}

func (o *ChatOracle) Complete(ctx context.Context, req contractx.OracleRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("%w: oracle prompt is empty", contractx.ErrPromptMissing)
	}

	if o.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.callTimeout)
		defer cancel()
	}

	msgs := []*schema.Message{schema.UserMessage(req.Prompt)}

	if len(req.Tools) == 0 {
		msg, err := o.model.Generate(ctx, msgs)
		if err != nil {
			return "", transportError(ctx, err)
		}
		if msg == nil {
			return "", fmt.Errorf("%w: empty model response", contractx.ErrMalformedResponse)
		}
		return msg.Content, nil
	}

	infos, err := toolx.Infos(ctx, req.Tools)
	if err != nil {
		return "", err
	}
	byName, err := toolx.Index(ctx, req.Tools)
	if err != nil {
		return "", err
	}
	bound, err := o.model.WithTools(infos)
	if err != nil {
		return "", fmt.Errorf("%w: bind tools: %w", contractx.ErrOracleTransport, err)
	}

	for round := 0; round <= o.maxToolRounds; round++ {
		msg, err := bound.Generate(ctx, msgs)
		if err != nil {
			return "", transportError(ctx, err)
		}
		if msg == nil {
			return "", fmt.Errorf("%w: empty model response", contractx.ErrMalformedResponse)
		}
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}

		msgs = append(msgs, msg)
		for _, call := range msg.ToolCalls {
			msgs = append(msgs, schema.ToolMessage(runTool(ctx, byName, call), call.ID))
		}
	}

	return "", fmt.Errorf("%w: model exceeded %d tool rounds", contractx.ErrOracleTransport, o.maxToolRounds)
}

// runTool never fails the completion; errors are reported to the model as
// the tool result so it can recover.
func runTool(ctx context.Context, byName map[string]contractx.Tool, call schema.ToolCall) string {
	name := strings.TrimSpace(call.Function.Name)
	t, ok := byName[name]
	if !ok {
		log.Warn().Str("tool", name).Msg("model requested unknown tool")
		return toolError(fmt.Sprintf("tool=%s is unavailable", name))
	}

	args := strings.TrimSpace(call.Function.Arguments)
	if args == "" {
		args = "{}"
	}

	out, err := t.InvokableRun(ctx, args)
	if err != nil {
		log.Warn().Err(err).Str("tool", name).Msg("tool call failed")
		return toolError(err.Error())
	}

	log.Debug().Str("tool", name).Str("args", args).Str("result", out).Msg("tool call resolved")
	return out
}

func toolError(msg string) string {
	raw, _ := json.Marshal(map[string]string{"error": msg})
	return string(raw)
}

func transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: call deadline: %w", contractx.ErrOracleTransport, ctxErr)
	}
	return fmt.Errorf("%w: %w", contractx.ErrOracleTransport, err)
}
