package commands

import (
	"context"
	"ncue-api/internal/components/telemetry"
	"ncue-api/internal/portal"
)

type globalsKey struct{}

type Globals struct {
	Config Config
	Client *portal.Client
	Tel    telemetry.API
	Otel   telemetry.Otel
}

func setGlobals(ctx context.Context, value *Globals) context.Context {
	return context.WithValue(ctx, globalsKey{}, value)
}

func getGlobals(ctx context.Context) *Globals {
	return ctx.Value(globalsKey{}).(*Globals)
}
