package cmd

import (
	"fmt"
	"os"

	"github.com/bnema/potato-cli/internal/adapters/ids"
	"github.com/bnema/potato-cli/internal/adapters/remote/simulated"
	statsrender "github.com/bnema/potato-cli/internal/adapters/render/stats"
	"github.com/bnema/potato-cli/internal/adapters/repo/jsonfile"
	tomlrepo "github.com/bnema/potato-cli/internal/adapters/repo/toml"
	chainstore "github.com/bnema/potato-cli/internal/adapters/secrets/chain"
	"github.com/bnema/potato-cli/internal/application"
	"github.com/bnema/potato-cli/internal/batch"
	"github.com/bnema/potato-cli/internal/config"
	"github.com/bnema/potato-cli/internal/domain"
	"github.com/bnema/potato-cli/internal/logging"
	"github.com/bnema/potato-cli/internal/ports"
	"github.com/spf13/viper"
)

const (
	accountIDPrefix = "acc_"
	userIDPrefix    = "user_"
)

type app struct {
	sessions      *application.SessionService
	provisioning  *application.ProvisioningService
	collection    *application.CollectionService
	stats         *application.StatsService
	statsRenderer func(application.Dashboard) (string, error)
}

func wireApp() (*app, error) {
	cfg, err := config.Load(viper.New())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.LogLevel, os.Stderr)

	idGen, err := ids.New(cfg.IDStrategy)
	if err != nil {
		return nil, fmt.Errorf("wire id generator: %w", err)
	}

	store, err := jsonfile.NewStore(cfg.StoreDir, logging.Component(logger, "record-store"))
	if err != nil {
		return nil, fmt.Errorf("wire record store: %w", err)
	}
	accounts, err := jsonfile.NewCollection[domain.Account](store, ports.AccountsCollection)
	if err != nil {
		return nil, fmt.Errorf("wire accounts collection: %w", err)
	}
	users, err := jsonfile.NewCollection[domain.CollectedUser](store, ports.CollectedUsersCollection)
	if err != nil {
		return nil, fmt.Errorf("wire collected users collection: %w", err)
	}

	operators, err := tomlrepo.NewOperatorRepository(cfg.OperatorsPath)
	if err != nil {
		return nil, fmt.Errorf("wire operator repository: %w", err)
	}
	sessionRepo, err := tomlrepo.NewSessionRepository(cfg.SessionPath)
	if err != nil {
		return nil, fmt.Errorf("wire session repository: %w", err)
	}

	secretStore, err := chainstore.NewPassFirstWithFileFallback(cfg.SecretsDir, logger)
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}

	accountRunner, err := batch.NewRunner[domain.Account](ids.WithPrefix(accountIDPrefix, idGen), cfg.Batch.Concurrency, logger)
	if err != nil {
		return nil, fmt.Errorf("wire account runner: %w", err)
	}
	userRunner, err := batch.NewRunner[domain.CollectedUser](ids.WithPrefix(userIDPrefix, idGen), cfg.Batch.Concurrency, logger)
	if err != nil {
		return nil, fmt.Errorf("wire collection runner: %w", err)
	}

	clock := ports.SystemClock{}
	remoteOpts := simulated.Options{
		SuccessRate: cfg.Remote.SuccessRate,
		Latency:     cfg.Remote.Latency,
		Seed:        cfg.Remote.Seed,
		Clock:       clock,
	}
	guard := batch.NewGuard()

	sessions := application.NewSessionService(operators, sessionRepo, idGen, clock, logging.Component(logger, "session"))

	return &app{
		sessions: sessions,
		provisioning: application.NewProvisioningService(
			sessions,
			simulated.NewProvisioning(remoteOpts),
			accounts,
			secretStore,
			accountRunner,
			guard,
			clock,
			logging.Component(logger, "provisioning"),
		),
		collection: application.NewCollectionService(
			sessions,
			simulated.NewCollection(remoteOpts),
			users,
			userRunner,
			guard,
			clock,
			logging.Component(logger, "collection"),
		),
		stats:         application.NewStatsService(sessions, accounts, users, clock),
		statsRenderer: statsrender.Render,
	}, nil
}
