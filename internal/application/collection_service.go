package application

import (
	"context"
	"fmt"

	"github.com/bnema/potato-cli/internal/adapters/export"
	"github.com/bnema/potato-cli/internal/batch"
	"github.com/bnema/potato-cli/internal/domain"
	"github.com/bnema/potato-cli/internal/ports"
	"github.com/rs/zerolog"
)

// CollectionService scans for candidate users and exports them. Nearby and group
// scans share one guard target, so only one scan runs at a time.
type CollectionService struct {
	gate   ports.SessionGate
	remote ports.CollectionService
	users  ports.CollectedUserCollection
	runner *batch.Runner[domain.CollectedUser]
	guard  *batch.Guard
	clock  ports.Clock
	logger zerolog.Logger
}

func NewCollectionService(
	gate ports.SessionGate,
	remote ports.CollectionService,
	users ports.CollectedUserCollection,
	runner *batch.Runner[domain.CollectedUser],
	guard *batch.Guard,
	clock ports.Clock,
	logger zerolog.Logger,
) *CollectionService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &CollectionService{
		gate:   gate,
		remote: remote,
		users:  users,
		runner: runner,
		guard:  guard,
		clock:  clock,
		logger: logger.With().Str("component", "collection-service").Logger(),
	}
}

// CollectNearby scans around the operator. At most query.MaxUsers users are kept.
func (s *CollectionService) CollectNearby(ctx context.Context, query domain.NearbyQuery, progress batch.ProgressFunc) (batch.Result[domain.CollectedUser], error) {
	if err := requireOperator(ctx, s.gate); err != nil {
		return batch.Result[domain.CollectedUser]{}, err
	}
	if err := query.Validate(); err != nil {
		return batch.Result[domain.CollectedUser]{}, err
	}

	return s.collect(ctx, query.MaxUsers, domain.SourceNearby, func(ctx context.Context) ([]domain.CollectedUser, error) {
		return s.remote.ScanNearby(ctx, query)
	}, progress)
}

// CollectGroup scans the members of a group. The requested count is the member
// count the method is expected to yield.
func (s *CollectionService) CollectGroup(ctx context.Context, query domain.GroupQuery, progress batch.ProgressFunc) (batch.Result[domain.CollectedUser], error) {
	if err := requireOperator(ctx, s.gate); err != nil {
		return batch.Result[domain.CollectedUser]{}, err
	}
	if err := query.Validate(); err != nil {
		return batch.Result[domain.CollectedUser]{}, err
	}

	return s.collect(ctx, query.Method.ExpectedMembers(), domain.SourceGroup, func(ctx context.Context) ([]domain.CollectedUser, error) {
		return s.remote.ScanGroup(ctx, query)
	}, progress)
}

func (s *CollectionService) collect(ctx context.Context, requested int, source domain.Source, fetch batch.BulkFunc[domain.CollectedUser], progress batch.ProgressFunc) (batch.Result[domain.CollectedUser], error) {
	release, err := s.guard.Acquire(s.users.Name())
	if err != nil {
		return batch.Result[domain.CollectedUser]{}, err
	}
	defer release()

	collectedAt := s.clock.Now()
	result, err := s.runner.RunBulk(ctx, requested, fetch, func(user domain.CollectedUser, id string) domain.CollectedUser {
		user.ID = domain.CollectedUserID(id)
		user.CollectedAt = collectedAt
		user.Source = source
		return user
	}, progress)
	if err != nil {
		return batch.Result[domain.CollectedUser]{}, err
	}

	if err := s.users.Append(ctx, result.Records); err != nil {
		return batch.Result[domain.CollectedUser]{}, fmt.Errorf("append collected users: %w", err)
	}

	s.logger.Info().Str("source", string(source)).Int("collected", result.SucceededCount).Msg("collection finished")
	return result, nil
}

func (s *CollectionService) List(ctx context.Context, criteria domain.Criteria) ([]domain.CollectedUser, error) {
	if err := requireOperator(ctx, s.gate); err != nil {
		return nil, err
	}
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	users, err := s.users.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load collected users: %w", err)
	}

	return domain.FilterUsers(users, criteria), nil
}

// Export filters the collected users and serializes them. Writing the bytes is
// left to the caller.
func (s *CollectionService) Export(ctx context.Context, criteria domain.Criteria, format export.Format) (ExportResult, error) {
	users, err := s.List(ctx, criteria)
	if err != nil {
		return ExportResult{}, err
	}

	data, err := export.Serialize(users, format)
	if err != nil {
		return ExportResult{}, err
	}

	return ExportResult{
		Data:     data,
		FileName: export.FileName(s.users.Name(), format, s.clock.Now()),
		Count:    len(users),
	}, nil
}

func (s *CollectionService) Clear(ctx context.Context) error {
	if err := requireOperator(ctx, s.gate); err != nil {
		return err
	}

	release, err := s.guard.Acquire(s.users.Name())
	if err != nil {
		return err
	}
	defer release()

	if err := s.users.Overwrite(ctx, nil); err != nil {
		return fmt.Errorf("clear collected users: %w", err)
	}

	return nil
}
