package harness

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sre-norns/gantry/pkg/bark"
	"github.com/sre-norns/gantry/pkg/manifest"
	"github.com/sre-norns/gantry/pkg/suite"
	"github.com/sre-norns/gantry/pkg/token"
)

const (
	maxListLimit   = 256
	updateTokenLen = 32
)

var (
	ErrResourceNotFound = fmt.Errorf("requested resource not found")
	ErrWrongUpdateToken = fmt.Errorf("invalid results update token")
)

// CreateSuite persists a new suite from its manifest form
func (s *Service) CreateSuite(ctx context.Context, m manifest.ResourceManifest) (bark.CreatedResponse, error) {
	spec, ok := m.Spec.(*suite.Spec)
	if !ok {
		return bark.CreatedResponse{}, fmt.Errorf("%w: %T", manifest.ErrUnexpectedSpecType, m.Spec)
	}
	if err := spec.Validate(); err != nil {
		return bark.CreatedResponse{}, err
	}

	entry := suite.Suite{
		ObjectMeta: m.Metadata,
		Spec:       *spec,
	}
	if err := s.store.Create(ctx, &entry); err != nil {
		return bark.CreatedResponse{}, err
	}

	return bark.CreatedResponse{
		TypeMeta:            manifest.TypeMeta{Kind: suite.KindSuite},
		VersionedResourceID: entry.GetVersionedID(),
	}, nil
}

func (s *Service) ListSuites(ctx context.Context, query bark.SearchQuery) ([]suite.Suite, error) {
	var resources []suite.Suite
	_, err := s.store.FindResources(ctx, &resources, query, maxListLimit)
	return resources, err
}

func (s *Service) GetSuite(ctx context.Context, id manifest.ResourceID) (suite.Suite, error) {
	var entry suite.Suite
	ok, err := s.store.Get(ctx, &entry, id)
	if err != nil {
		return entry, err
	}
	if !ok {
		return entry, fmt.Errorf("%w: suite %v", ErrResourceNotFound, id)
	}

	return entry, nil
}

func (s *Service) DeleteSuite(ctx context.Context, id manifest.VersionedResourceID) (bool, error) {
	return s.store.Delete(ctx, &suite.Suite{}, id)
}

// ScheduleRun cuts a pending result for the suite and hands the job to the
// queue. The returned token authorizes exactly one outcome update.
func (s *Service) ScheduleRun(ctx context.Context, id manifest.ResourceID) (ScheduleRunResponse, error) {
	entry, err := s.GetSuite(ctx, id)
	if err != nil {
		return ScheduleRunResponse{}, err
	}

	updateToken := string(token.RandToken(updateTokenLen))
	result := suite.Result{
		ObjectMeta: manifest.ObjectMeta{
			Name: fmt.Sprintf("%s-%d", entry.Name, time.Now().UnixMilli()),
		},
		SuiteID:      entry.UID,
		SuiteVersion: entry.Version,
		Status:       suite.StatusPending,
		TimeStarted: sql.NullTime{
			Time:  time.Now(),
			Valid: true,
		},
		UpdateToken: updateToken,
	}
	if err := s.store.Create(ctx, &result); err != nil {
		return ScheduleRunResponse{}, err
	}

	runID, err := s.scheduler.Schedule(ctx, result, entry)
	if err != nil {
		return ScheduleRunResponse{}, err
	}

	return ScheduleRunResponse{
		ResultName: result.Name,
		RunID:      string(runID),
		Token:      updateToken,
	}, nil
}

func (s *Service) ListResults(ctx context.Context, query bark.SearchQuery) ([]suite.Result, error) {
	var resources []suite.Result
	_, err := s.store.FindResources(ctx, &resources, query, maxListLimit)
	return resources, err
}

func (s *Service) GetResult(ctx context.Context, id manifest.ResourceID) (suite.Result, error) {
	var result suite.Result
	ok, err := s.store.Get(ctx, &result, id)
	if err != nil {
		return result, err
	}
	if !ok {
		return result, fmt.Errorf("%w: result %v", ErrResourceNotFound, id)
	}

	return result, nil
}

// UpdateResult posts a run's outcome. The bearer token must match the one
// minted when the run was scheduled.
func (s *Service) UpdateResult(ctx context.Context, id manifest.VersionedResourceID, bearer string, status suite.Status, artifacts ...suite.ArtifactValue) (suite.Result, error) {
	var result suite.Result
	ok, err := s.store.GetWithVersion(ctx, &result, id)
	if err != nil {
		return result, err
	}
	if !ok {
		return result, fmt.Errorf("%w: result %v", ErrResourceNotFound, id.ID)
	}
	if result.UpdateToken == "" || result.UpdateToken != bearer {
		// A worker posting on its own credentials is acceptable too
		if _, err := s.issuer.Verify(bearer); err != nil {
			return result, ErrWrongUpdateToken
		}
	}

	suite.FinalizeRun(&result, status, suite.WithArtifacts(artifacts...))
	result.Version += 1

	if _, err := s.store.Update(ctx, &result, id); err != nil {
		return result, err
	}

	return result, nil
}

func (s *Service) GetArtifact(ctx context.Context, id manifest.ResourceID) (suite.Artifact, error) {
	var artifact suite.Artifact
	ok, err := s.store.Get(ctx, &artifact, id)
	if err != nil {
		return artifact, err
	}
	if !ok {
		return artifact, fmt.Errorf("%w: artifact %v", ErrResourceNotFound, id)
	}

	return artifact, nil
}

// AuthWorker trades a worker's registration for its signed credentials
func (s *Service) AuthWorker(ctx context.Context, registration WorkerRegistration) (WorkerAuthResponse, error) {
	signed, err := s.issuer.Issue(registration.Name, registration.Labels)
	if err != nil {
		return WorkerAuthResponse{}, err
	}

	s.logger.Log("msg", "worker registered", "name", registration.Name, "labels", len(registration.Labels))

	return WorkerAuthResponse{Token: signed}, nil
}

// VerifyWorker validates a worker bearer token
func (s *Service) VerifyWorker(ctx context.Context, bearer string) (*token.WorkerClaims, error) {
	return s.issuer.Verify(bearer)
}
