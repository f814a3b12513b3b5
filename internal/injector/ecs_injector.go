//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/tailormade/ecs/internal/core/ecs/environment"
	"github.com/tailormade/ecs/internal/core/observability/log"
)

// ProvideEnvironment wires an Environment from its on-disk roots and
// the shared logger, mirroring ProvideLogger's stub pattern.
func ProvideEnvironment(opts environment.Options) (*environment.Environment, error) {
	wire.Build(log.Provide, environment.New)
	return environment.New(opts)
}
