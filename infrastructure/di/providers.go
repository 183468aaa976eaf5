package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"focusloop/application/commands"
	cmdbus "focusloop/application/commands/bus"
	commandhandlers "focusloop/application/commands/handlers"
	"focusloop/application/ports"
	"focusloop/application/queries"
	querybus "focusloop/application/queries/bus"
	queryhandlers "focusloop/application/queries/handlers"
	"focusloop/application/services"
	domainconfig "focusloop/domain/config"
	"focusloop/infrastructure/config"
	"focusloop/infrastructure/llm"
	"focusloop/infrastructure/messaging/eventbridge"
	"focusloop/infrastructure/persistence/dynamodb"
	"focusloop/infrastructure/persistence/memory"
	"focusloop/interfaces/http/rest"
	"focusloop/interfaces/http/rest/handlers"
	"focusloop/pkg/auth"
	"focusloop/pkg/extensions"
	"focusloop/pkg/observability"
)

// ProvideLogger creates the process logger
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig loads the default AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideDomainConfig returns the lifecycle limits
func ProvideDomainConfig() *domainconfig.DomainConfig {
	return domainconfig.DefaultDomainConfig()
}

// ProvideEntityStore creates the canonical in-process store, seeded with
// the configured default model
func ProvideEntityStore(ctx context.Context, cfg *config.Config, domainCfg *domainconfig.DomainConfig, logger *zap.Logger) (ports.EntityStore, error) {
	store := memory.NewStore(domainCfg, logger)
	if cfg.GroqDefaultModel != "" {
		if err := store.SetSelectedModel(ctx, cfg.GroqDefaultModel); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// ProvideModelClient creates the Groq client
func ProvideModelClient(cfg *config.Config, logger *zap.Logger) ports.ModelClient {
	return llm.NewGroqClient(llm.GroqConfig{
		APIKey:  cfg.GroqAPIKey,
		BaseURL: cfg.GroqBaseURL,
		Timeout: cfg.GroqTimeout,
	}, logger)
}

// ProvideCache creates the in-process cache used for concept refreshers
func ProvideCache() ports.Cache {
	return NewInMemoryCache()
}

// ProvidePropositionChain creates the proposition chain builder
func ProvidePropositionChain(model ports.ModelClient, logger *zap.Logger) *services.PropositionChain {
	return services.NewPropositionChain(model, logger)
}

// ProvideConceptService creates the concept refresher service
func ProvideConceptService(model ports.ModelClient, cache ports.Cache, logger *zap.Logger) *services.ConceptService {
	return services.NewConceptService(model, cache, logger)
}

// ProvideMetrics creates the CloudWatch recorder, or a no-op one when
// metrics are disabled
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	if !cfg.EnableMetrics {
		return observability.NewMetrics(nil, cfg.MetricNamespace, logger)
	}
	return observability.NewMetrics(client, cfg.MetricNamespace, logger)
}

// ProvideEventPublisher creates the EventBridge publisher
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideEventStore creates the DynamoDB event store with its outbox index
func ProvideEventStore(client *awsdynamodb.Client, cfg *config.Config) *dynamodb.EventStore {
	return dynamodb.NewEventStore(client, cfg.DynamoDBTable)
}

// ProvideOutboxRelay creates the background publisher draining pending
// events
func ProvideOutboxRelay(store *dynamodb.EventStore, publisher ports.EventPublisher, logger *zap.Logger) *dynamodb.OutboxRelay {
	return dynamodb.NewOutboxRelay(store, publisher, logger)
}

// ProvideDistributedLock creates the DynamoDB lock used by snapshot writes
func ProvideDistributedLock(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) *dynamodb.DistributedLock {
	return dynamodb.NewDistributedLock(client, cfg.DynamoDBTable, logger)
}

// ProvideSnapshotStore creates the DynamoDB snapshot store
func ProvideSnapshotStore(client *awsdynamodb.Client, cfg *config.Config, lock *dynamodb.DistributedLock, logger *zap.Logger) ports.SnapshotStore {
	return dynamodb.NewSnapshotStore(client, cfg.DynamoDBTable, lock, logger)
}

// ProvideDistributedRateLimiter creates the shared per-user window backing
// the Lambda auth path
func ProvideDistributedRateLimiter(client *awsdynamodb.Client, cfg *config.Config) *auth.DistributedRateLimiter {
	return auth.NewDistributedUserRateLimiter(client, cfg.DynamoDBTable, 200)
}

// ProvideAttemptOrchestrator wires the lifecycle command handler
func ProvideAttemptOrchestrator(
	store ports.EntityStore,
	model ports.ModelClient,
	chain *services.PropositionChain,
	concepts *services.ConceptService,
	outbox *dynamodb.EventStore,
	metrics *observability.Metrics,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *commandhandlers.AttemptOrchestrator {
	return commandhandlers.NewAttemptOrchestrator(store, model, chain, concepts, outbox, metrics, domainCfg, logger)
}

// ProvideTopicCommandHandler wires the topic command handler
func ProvideTopicCommandHandler(store ports.EntityStore, outbox *dynamodb.EventStore, logger *zap.Logger) *commandhandlers.TopicHandler {
	return commandhandlers.NewTopicHandler(store, outbox, logger)
}

// ProvideSettingsCommandHandler wires the settings command handler
func ProvideSettingsCommandHandler(store ports.EntityStore, model ports.ModelClient, logger *zap.Logger) *commandhandlers.SettingsHandler {
	return commandhandlers.NewSettingsHandler(store, model, logger)
}

// ProvideTopicQueryHandler wires the topic reads
func ProvideTopicQueryHandler(store ports.EntityStore, snapshots ports.SnapshotStore, logger *zap.Logger) *queryhandlers.TopicQueryHandler {
	return queryhandlers.NewTopicQueryHandler(store, snapshots, logger)
}

// ProvideAttemptQueryHandler wires the attempt reads
func ProvideAttemptQueryHandler(store ports.EntityStore, logger *zap.Logger) *queryhandlers.AttemptQueryHandler {
	return queryhandlers.NewAttemptQueryHandler(store, logger)
}

// ProvideSettingsQueryHandler wires the settings reads
func ProvideSettingsQueryHandler(store ports.EntityStore, model ports.ModelClient, logger *zap.Logger) *queryhandlers.SettingsQueryHandler {
	return queryhandlers.NewSettingsQueryHandler(store, model, logger)
}

// ProvideHookManager creates the extension hook registry
func ProvideHookManager() *extensions.HookManager {
	return extensions.NewHookManager()
}

// ProvideCommandBus registers the void commands, each wrapped with the
// extension hooks. Commands that return a projection are called on their
// handlers directly by the HTTP layer.
func ProvideCommandBus(
	topics *commandhandlers.TopicHandler,
	settings *commandhandlers.SettingsHandler,
	hooks *extensions.HookManager,
) (*cmdbus.CommandBus, error) {
	commandBus := cmdbus.NewCommandBus()

	registrations := []struct {
		cmd     cmdbus.Command
		handler cmdbus.CommandHandlerFunc
	}{
		{commands.DeleteTopicCommand{}, func(ctx context.Context, cmd cmdbus.Command) error {
			return topics.DeleteTopic(ctx, cmd.(commands.DeleteTopicCommand))
		}},
		{commands.UpdateThemeTitleCommand{}, func(ctx context.Context, cmd cmdbus.Command) error {
			return topics.UpdateThemeTitle(ctx, cmd.(commands.UpdateThemeTitleCommand))
		}},
		{commands.RemoveThemeCommand{}, func(ctx context.Context, cmd cmdbus.Command) error {
			return topics.RemoveTheme(ctx, cmd.(commands.RemoveThemeCommand))
		}},
		{commands.SelectModelCommand{}, func(ctx context.Context, cmd cmdbus.Command) error {
			return settings.SelectModel(ctx, cmd.(commands.SelectModelCommand))
		}},
		{commands.UpdatePromptCommand{}, func(ctx context.Context, cmd cmdbus.Command) error {
			return settings.UpdatePrompt(ctx, cmd.(commands.UpdatePromptCommand))
		}},
		{commands.ClearDraftCommand{}, func(ctx context.Context, cmd cmdbus.Command) error {
			return settings.ClearDraft(ctx, cmd.(commands.ClearDraftCommand))
		}},
	}
	for _, reg := range registrations {
		if err := commandBus.Register(reg.cmd, withHooks(hooks, reg.handler)); err != nil {
			return nil, fmt.Errorf("register command handler: %w", err)
		}
	}
	return commandBus, nil
}

// withHooks surrounds a command handler with the extension hook points
func withHooks(hooks *extensions.HookManager, next cmdbus.CommandHandlerFunc) cmdbus.CommandHandlerFunc {
	return func(ctx context.Context, cmd cmdbus.Command) error {
		name := fmt.Sprintf("%T", cmd)
		if err := hooks.Execute(ctx, extensions.HookBeforeCommand, extensions.HookData{Command: name}); err != nil {
			return err
		}
		if err := next(ctx, cmd); err != nil {
			_ = hooks.Execute(ctx, extensions.HookCommandFailed, extensions.HookData{Command: name, Error: err})
			return err
		}
		_ = hooks.Execute(ctx, extensions.HookAfterCommand, extensions.HookData{Command: name})
		return nil
	}
}

// ProvideQueryBus registers all reads
func ProvideQueryBus(
	topics *queryhandlers.TopicQueryHandler,
	attempts *queryhandlers.AttemptQueryHandler,
	settings *queryhandlers.SettingsQueryHandler,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()

	registrations := []struct {
		query   querybus.Query
		handler querybus.QueryHandlerFunc
	}{
		{queries.GetTopicQuery{}, func(ctx context.Context, q querybus.Query) (interface{}, error) {
			return topics.HandleGetTopic(ctx, q.(queries.GetTopicQuery))
		}},
		{queries.ListTopicsQuery{}, func(ctx context.Context, q querybus.Query) (interface{}, error) {
			return topics.HandleListTopics(ctx, q.(queries.ListTopicsQuery))
		}},
		{queries.ExportTopicQuery{}, func(ctx context.Context, q querybus.Query) (interface{}, error) {
			return topics.HandleExportTopic(ctx, q.(queries.ExportTopicQuery))
		}},
		{queries.GetAttemptQuery{}, func(ctx context.Context, q querybus.Query) (interface{}, error) {
			return attempts.HandleGetAttempt(ctx, q.(queries.GetAttemptQuery))
		}},
		{queries.GetSettingsQuery{}, func(ctx context.Context, q querybus.Query) (interface{}, error) {
			return settings.HandleGetSettings(ctx, q.(queries.GetSettingsQuery))
		}},
		{queries.GetDraftQuery{}, func(ctx context.Context, q querybus.Query) (interface{}, error) {
			return settings.HandleGetDraft(ctx, q.(queries.GetDraftQuery))
		}},
		{queries.ListModelsQuery{}, func(ctx context.Context, q querybus.Query) (interface{}, error) {
			return settings.HandleListModels(ctx, q.(queries.ListModelsQuery))
		}},
	}
	for _, reg := range registrations {
		if err := queryBus.Register(reg.query, reg.handler); err != nil {
			return nil, fmt.Errorf("register query handler: %w", err)
		}
	}
	return queryBus, nil
}

// ProvideTopicHTTPHandler wires the topic routes
func ProvideTopicHTTPHandler(
	topics *commandhandlers.TopicHandler,
	commandBus *cmdbus.CommandBus,
	queryBus *querybus.QueryBus,
	logger *zap.Logger,
) *handlers.TopicHandler {
	return handlers.NewTopicHandler(topics, commandBus, queryBus, logger)
}

// ProvideAttemptHTTPHandler wires the attempt routes
func ProvideAttemptHTTPHandler(
	orchestrator *commandhandlers.AttemptOrchestrator,
	queryBus *querybus.QueryBus,
	logger *zap.Logger,
) *handlers.AttemptHandler {
	return handlers.NewAttemptHandler(orchestrator, queryBus, logger)
}

// ProvideSettingsHTTPHandler wires the settings and draft routes
func ProvideSettingsHTTPHandler(
	settings *commandhandlers.SettingsHandler,
	commandBus *cmdbus.CommandBus,
	queryBus *querybus.QueryBus,
	logger *zap.Logger,
) *handlers.SettingsHandler {
	return handlers.NewSettingsHandler(settings, commandBus, queryBus, logger)
}

// ProvideRouter wires the HTTP surface
func ProvideRouter(
	cfg *config.Config,
	limiter *auth.DistributedRateLimiter,
	topics *handlers.TopicHandler,
	attempts *handlers.AttemptHandler,
	settings *handlers.SettingsHandler,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(cfg, limiter, topics, attempts, settings, logger)
}
