package harness

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-kit/log"
	"github.com/sre-norns/gantry/pkg/appctx"
	"github.com/sre-norns/gantry/pkg/bridge"
	"github.com/sre-norns/gantry/pkg/dbstore"
	"github.com/sre-norns/gantry/pkg/hook"
	"github.com/sre-norns/gantry/pkg/intercept"
	"github.com/sre-norns/gantry/pkg/launch"
	"github.com/sre-norns/gantry/pkg/queue"
	"github.com/sre-norns/gantry/pkg/token"
)

var (
	ErrAmbiguousBridgeRequest = fmt.Errorf("bridge request must carry exactly one of hook name or callback source")
	ErrNoInterceptorInstalled = fmt.Errorf("no interceptor is installed")
)

// Service is the server side of the harness task surface. It owns the live
// application context bridged callbacks execute against; callers reach it
// through the REST routes or the typed client.
type Service struct {
	app  *appctx.Context
	exec *bridge.Executor

	store     *dbstore.DbStore
	scheduler queue.Scheduler
	issuer    *token.Issuer

	logger log.Logger
}

func NewService(app *appctx.Context, exec *bridge.Executor, store *dbstore.DbStore, scheduler queue.Scheduler, issuer *token.Issuer, logger log.Logger) *Service {
	return &Service{
		app:       app,
		exec:      exec,
		store:     store,
		scheduler: scheduler,
		issuer:    issuer,
		logger:    logger,
	}
}

func (s *Service) sessionInfo() SessionInfo {
	sess := s.app.Session()

	return SessionInfo{
		ID:      sess.ID,
		GqlPort: sess.GqlPort,
		AppPort: sess.AppPort,
		Project: sess.Project,
	}
}

// Setup provisions the pre-suite fixtures: the GraphQL endpoint comes up and
// its port is recorded in the session. Idempotent within one session.
func (s *Service) Setup(ctx context.Context) (SessionInfo, error) {
	if _, err := s.app.StartGql(); err != nil {
		return SessionInfo{}, fmt.Errorf("failed to start fixture endpoint: %w", err)
	}

	return s.sessionInfo(), nil
}

// Reset is the per-test boundary: everything the previous test established is
// torn down and a fresh session provisioned. Nothing survives the reset.
func (s *Service) Reset(ctx context.Context) (SessionInfo, error) {
	if err := s.app.Reset(); err != nil {
		s.logger.Log("msg", "reset: endpoint teardown reported error", "err", err)
	}

	return s.Setup(ctx)
}

// AddProject registers a named test project with the live app context
func (s *Service) AddProject(ctx context.Context, name string) (*appctx.Project, error) {
	return s.app.AddProject(name)
}

// Launch resets the launch arguments of the application under test. When the
// args name a project it is opened and the application endpoint comes up,
// establishing the app port for subsequent visits. Unknown projects fail
// before anything is touched.
func (s *Service) Launch(ctx context.Context, args launch.Args) (SessionInfo, error) {
	if args.Project != "" {
		if err := s.app.OpenProject(args.Project); err != nil {
			return SessionInfo{}, err
		}
	}

	if _, err := s.app.StartApp(); err != nil {
		return SessionInfo{}, fmt.Errorf("failed to start application endpoint: %w", err)
	}

	s.logger.Log("msg", "launch args reset", "project", args.Project, "argv", len(args.Argv))

	return s.sessionInfo(), nil
}

func (s *Service) newCall(args map[string]any) *bridge.Call {
	return &bridge.Call{
		App:        s.app,
		Args:       args,
		Scratch:    s.app.Scratch(),
		ProjectDir: s.app.ProjectDir,
	}
}

// Bridge executes one callback against the live app context: either a
// pre-registered hook by name or interpreted source. The returned response
// carries the serialized value or the remote failure; the error return covers
// request-shape and unknown-hook failures only.
func (s *Service) Bridge(ctx context.Context, request BridgeRequest) (bridge.CallResponse, error) {
	if (request.Hook == "") == (request.Source == "") {
		return bridge.CallResponse{}, ErrAmbiguousBridgeRequest
	}

	call := s.newCall(request.Args)

	if request.Hook != "" {
		fn, ok := hook.Find(request.Hook)
		if !ok {
			return bridge.CallResponse{}, fmt.Errorf("%w: %q", hook.ErrUnknownHook, request.Hook)
		}

		s.logger.Log("msg", "hook call", "name", request.Hook, "args", len(request.Args))
		value, err := fn(ctx, call)
		if err != nil {
			return bridge.CallResponse{Error: &bridge.RemoteError{Message: err.Error()}}, nil
		}

		data, err := json.Marshal(value)
		if err != nil {
			return bridge.CallResponse{Error: &bridge.RemoteError{
				Message: fmt.Sprintf("hook returned an unserializable value: %v", err),
			}}, nil
		}

		return bridge.CallResponse{Value: data}, nil
	}

	return s.exec.Run(ctx, bridge.CallRequest{
		Name:   request.Name,
		Source: request.Source,
		Args:   request.Args,
	}, request.Timeout, call), nil
}

// InstallIntercept compiles the interceptor source and makes it the single
// active interceptor, superseding any prior one
func (s *Service) InstallIntercept(ctx context.Context, source string) (InterceptResponse, error) {
	fn, err := bridge.Compile[intercept.Func](source, "main.Intercept", intercept.Symbols)
	if err != nil {
		return InterceptResponse{}, err
	}

	superseded := s.app.Interceptor().Install(fn)
	s.logger.Log("msg", "interceptor installed", "superseded", superseded)

	return InterceptResponse{Superseded: superseded}, nil
}

// RemoveIntercept restores the original traffic handling path
func (s *Service) RemoveIntercept(ctx context.Context) RemoveInterceptResponse {
	removed := s.app.Interceptor().Clear()
	s.logger.Log("msg", "interceptor removed", "wasActive", removed)

	return RemoveInterceptResponse{Removed: removed}
}
