package observers

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/compose"

	logx "github.com/Chative-commerce-agent/server/pkg/logger"
)

type stageStartKey struct{}

// NewStageCallbacks times every lambda stage of the pipeline.
func NewStageCallbacks() einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackInput) context.Context {
			if !isStage(info) {
				return ctx
			}
			return context.WithValue(ctx, stageStartKey{}, time.Now())
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackOutput) context.Context {
			if !isStage(info) {
				return ctx
			}
			logx.Ctx(ctx).Debug().Str("node", info.Name).Dur("duration", stageElapsed(ctx)).Msg("Stage finished")
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			if !isStage(info) {
				return ctx
			}
			logx.Ctx(ctx).Error().Err(err).Str("node", info.Name).Dur("duration", stageElapsed(ctx)).Msg("Stage failed")
			return ctx
		}).
		Build()
}

func isStage(info *einocb.RunInfo) bool {
	return info != nil && info.Component == compose.ComponentOfLambda
}

func stageElapsed(ctx context.Context) time.Duration {
	start, ok := ctx.Value(stageStartKey{}).(time.Time)
	if !ok {
		return 0
	}
	return time.Since(start)
}
