package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"dalada-backend/internal/client"
	"dalada-backend/internal/config"
	"dalada-backend/internal/events"
	"dalada-backend/internal/hashing"
	"dalada-backend/internal/notify"
	"dalada-backend/internal/repository/postgres"
	"dalada-backend/internal/repository/redis"
	"dalada-backend/internal/service"
	"dalada-backend/internal/token"
	"dalada-backend/internal/util"
)

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config *config.Config

	// Clients
	postgresClient *client.PostgresClient
	redisClient    *client.RedisClient
	kafkaProducer  *client.KafkaProducer

	// Core components
	hasher    *hashing.Hasher
	issuer    *token.Issuer
	publisher *events.Publisher

	// Repositories
	otpRepository       postgres.OTPRepository
	userRepository      postgres.UserRepository
	candidateRepository postgres.CandidateRepository
	employerRepository  postgres.EmployerRepository
	throttleCache       *redis.ThrottleCache

	// Services
	authService    *service.AuthService
	oauthService   *service.OAuthService
	profileService *service.ProfileService

	closeOnce sync.Once
	closed    chan struct{}
}

// NewFactory creates and initializes all application dependencies
func NewFactory() (*Factory, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	factory := &Factory{
		config: cfg,
		closed: make(chan struct{}),
	}

	if err := factory.initializeClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}
	factory.initializeComponents()
	factory.initializeRepositories()
	factory.initializeServices()

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.Bool("kafka_enabled", cfg.Kafka.Enabled),
		util.Bool("migrations_enabled", cfg.Database.MigrateOnStart),
	)

	return factory, nil
}

// initializeClients initializes all external service clients with health checks
func (f *Factory) initializeClients() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Postgres is the system of record; not starting without it.
	pg, err := client.NewPostgresClient(f.config, util.Get())
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	f.postgresClient = pg
	if f.config.Database.MigrateOnStart {
		if err := f.postgresClient.Migrate(); err != nil {
			return fmt.Errorf("postgres migrations: %w", err)
		}
	}

	rc, err := client.NewRedisClient(f.config, util.Get())
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	f.redisClient = rc
	if err := f.redisClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("redis health check: %w", err)
	}
	util.Info("Redis client initialized and healthy")

	// Kafka is optional; the publisher degrades to a no-op without it.
	if f.config.Kafka.Enabled {
		producer, err := client.NewKafkaProducer(f.config, util.Get())
		if err != nil {
			util.Warn("Kafka producer initialization failed - proceeding without Kafka", util.ErrorField(err))
		} else {
			f.kafkaProducer = producer
			util.Info("Kafka producer initialized")
		}
	}

	return nil
}

func (f *Factory) initializeComponents() {
	f.hasher = hashing.NewHasher(f.config.Auth.OTPPepper)
	f.issuer = token.NewIssuer(f.config.Auth.JWTSecret, f.config.Auth.AccessTTL, f.config.Auth.RefreshTTL)
	f.publisher = events.NewPublisher(f.kafkaProducer, util.Get())
}

func (f *Factory) initializeRepositories() {
	f.otpRepository = postgres.NewOTPRepository(f.postgresClient)
	f.userRepository = postgres.NewUserRepository(f.postgresClient)
	f.candidateRepository = postgres.NewCandidateRepository(f.postgresClient)
	f.employerRepository = postgres.NewEmployerRepository(f.postgresClient)
	f.throttleCache = redis.NewThrottleCache(f.redisClient)
}

func (f *Factory) initializeServices() {
	dispatcher := notify.NewEmailDispatcher(&f.config.SMTP, util.Get())

	f.authService = service.NewAuthService(
		f.otpRepository,
		f.userRepository,
		f.throttleCache,
		f.hasher,
		f.issuer,
		dispatcher,
		f.publisher,
		service.AuthOptions{
			CodeTTL:        f.config.Auth.CodeTTL,
			ResendWindow:   f.config.Auth.ResendWindow,
			MaxVerifyTries: f.config.Auth.MaxVerifyTries,
			Production:     f.config.IsProduction(),
		},
		util.Get(),
	)
	f.oauthService = service.NewOAuthService(
		f.config.OAuth,
		f.userRepository,
		f.issuer,
		f.publisher,
		util.Get(),
	)
	f.profileService = service.NewProfileService(
		f.candidateRepository,
		f.employerRepository,
		util.Get(),
	)
}

// HealthCheck probes the backing stores concurrently.
func (f *Factory) HealthCheck(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := f.postgresClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		util.Info("Shutting down factory...")

		if f.kafkaProducer != nil {
			if err := f.kafkaProducer.Close(); err != nil {
				util.Error("Failed to close Kafka producer", util.ErrorField(err))
			} else {
				util.Info("Kafka producer closed")
			}
		}

		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			} else {
				util.Info("Redis client closed")
			}
		}

		if f.postgresClient != nil {
			if err := f.postgresClient.Close(); err != nil {
				util.Error("Failed to close Postgres client", util.ErrorField(err))
			} else {
				util.Info("Postgres client closed")
			}
		}

		util.Sync()
	})

	return nil
}

func (f *Factory) WaitForClose() {
	<-f.closed
}

func (f *Factory) Config() *config.Config {
	return f.config
}

func (f *Factory) AuthService() *service.AuthService {
	return f.authService
}

func (f *Factory) OAuthService() *service.OAuthService {
	return f.oauthService
}

func (f *Factory) ProfileService() *service.ProfileService {
	return f.profileService
}

func (f *Factory) Issuer() *token.Issuer {
	return f.issuer
}
