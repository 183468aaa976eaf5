//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	cmdbus "focusloop/application/commands/bus"
	"focusloop/application/ports"
	querybus "focusloop/application/queries/bus"
	"focusloop/infrastructure/config"
	"focusloop/infrastructure/persistence/dynamodb"
	"focusloop/interfaces/http/rest"
	"focusloop/pkg/auth"
	"focusloop/pkg/extensions"
	"focusloop/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	Store         ports.EntityStore
	Model         ports.ModelClient
	Cache         ports.Cache
	Metrics       *observability.Metrics
	Publisher     ports.EventPublisher
	EventStore    *dynamodb.EventStore
	OutboxRelay   *dynamodb.OutboxRelay
	SnapshotStore ports.SnapshotStore
	RateLimiter   *auth.DistributedRateLimiter
	Hooks         *extensions.HookManager
	CommandBus    *cmdbus.CommandBus
	QueryBus      *querybus.QueryBus
	Router        *rest.Router
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideDomainConfig,
	ProvideEntityStore,
	ProvideModelClient,
	ProvideCache,
	ProvidePropositionChain,
	ProvideConceptService,
	ProvideMetrics,
	ProvideEventPublisher,
	ProvideEventStore,
	ProvideOutboxRelay,
	ProvideDistributedLock,
	ProvideSnapshotStore,
	ProvideDistributedRateLimiter,
	ProvideHookManager,
	ProvideAttemptOrchestrator,
	ProvideTopicCommandHandler,
	ProvideSettingsCommandHandler,
	ProvideTopicQueryHandler,
	ProvideAttemptQueryHandler,
	ProvideSettingsQueryHandler,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideTopicHTTPHandler,
	ProvideAttemptHTTPHandler,
	ProvideSettingsHTTPHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
