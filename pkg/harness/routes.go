package harness

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sre-norns/gantry/pkg/appctx"
	"github.com/sre-norns/gantry/pkg/bark"
	"github.com/sre-norns/gantry/pkg/hook"
	"github.com/sre-norns/gantry/pkg/launch"
	"github.com/sre-norns/gantry/pkg/session"
	"github.com/sre-norns/gantry/pkg/suite"
)

// Version of the API server, stamped at build time
var Version = "development"

// statusForError maps the failure taxonomy onto HTTP status codes:
// violated preconditions and malformed requests are the caller's fault,
// unknown resources are 404s, bad credentials are 401s. Remote execution
// failures never reach this path, they travel inside the response body.
func statusForError(err error) int {
	switch {
	case errors.Is(err, session.ErrNoAppPort),
		errors.Is(err, appctx.ErrNoProjectOpen),
		errors.Is(err, ErrAmbiguousBridgeRequest):
		return http.StatusConflict
	case errors.Is(err, appctx.ErrUnknownProject),
		errors.Is(err, hook.ErrUnknownHook),
		errors.Is(err, ErrResourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrWrongUpdateToken):
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

func abortWithError(ctx *gin.Context, err error) {
	bark.AbortWithError(ctx, statusForError(err), err)
}

// Routes wires the harness task surface and the suite store into a gin engine
func Routes(srv *Service) *gin.Engine {
	router := gin.Default()

	v1 := router.Group("api/v1")
	{
		v1.GET("/version", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"version": Version})
		})

		v1.GET("/session", bark.ContentTypeAPI(), func(ctx *gin.Context) {
			bark.MarshalResponse(ctx, http.StatusOK, srv.sessionInfo())
		})

		v1.POST("/setup", bark.ContentTypeAPI(), func(ctx *gin.Context) {
			info, err := srv.Setup(ctx.Request.Context())
			if err != nil {
				abortWithError(ctx, err)
				return
			}

			bark.MarshalResponse(ctx, http.StatusOK, info)
		})

		v1.POST("/reset", bark.ContentTypeAPI(), func(ctx *gin.Context) {
			info, err := srv.Reset(ctx.Request.Context())
			if err != nil {
				abortWithError(ctx, err)
				return
			}

			bark.MarshalResponse(ctx, http.StatusOK, info)
		})

		v1.GET("/projects", bark.ContentTypeAPI(), func(ctx *gin.Context) {
			bark.MarshalResponse(ctx, http.StatusOK, gin.H{"projects": srv.app.Projects()})
		})

		v1.POST("/projects", bark.ContentTypeAPI(), func(ctx *gin.Context) {
			var request AddProjectRequest
			if err := ctx.ShouldBind(&request); err != nil {
				abortWithError(ctx, err)
				return
			}

			project, err := srv.AddProject(ctx.Request.Context(), request.Name)
			if err != nil {
				abortWithError(ctx, err)
				return
			}

			bark.MarshalResponse(ctx, http.StatusCreated, project)
		})

		v1.PUT("/launch", bark.ContentTypeAPI(), func(ctx *gin.Context) {
			var request LaunchRequest
			if err := ctx.ShouldBind(&request); err != nil {
				abortWithError(ctx, err)
				return
			}

			args, err := launch.ParseArgv(request.Argv)
			if err != nil {
				abortWithError(ctx, err)
				return
			}

			info, err := srv.Launch(ctx.Request.Context(), args)
			if err != nil {
				abortWithError(ctx, err)
				return
			}

			bark.MarshalResponse(ctx, http.StatusOK, info)
		})

		v1.POST("/bridge", bark.ContentTypeAPI(), func(ctx *gin.Context) {
			var request BridgeRequest
			if err := ctx.ShouldBind(&request); err != nil {
				abortWithError(ctx, err)
				return
			}

			response, err := srv.Bridge(ctx.Request.Context(), request)
			if err != nil {
				abortWithError(ctx, err)
				return
			}

			bark.MarshalResponse(ctx, http.StatusOK, response)
		})

		v1.GET("/hooks", bark.ContentTypeAPI(), func(ctx *gin.Context) {
			bark.MarshalResponse(ctx, http.StatusOK, gin.H{"hooks": hook.Names()})
		})

		v1.PUT("/intercept", bark.ContentTypeAPI(), func(ctx *gin.Context) {
			var request InterceptRequest
			if err := ctx.ShouldBind(&request); err != nil {
				abortWithError(ctx, err)
				return
			}

			response, err := srv.InstallIntercept(ctx.Request.Context(), request.Source)
			if err != nil {
				abortWithError(ctx, err)
				return
			}

			bark.MarshalResponse(ctx, http.StatusOK, response)
		})

		v1.DELETE("/intercept", bark.ContentTypeAPI(), func(ctx *gin.Context) {
			bark.MarshalResponse(ctx, http.StatusOK, srv.RemoveIntercept(ctx.Request.Context()))
		})

		v1.GET("/traffic", bark.ContentTypeAPI(), func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, srv.app.Traffic())
		})

		v1.PUT("/workers", bark.ContentTypeAPI(), func(ctx *gin.Context) {
			var registration WorkerRegistration
			if err := ctx.ShouldBind(&registration); err != nil {
				abortWithError(ctx, err)
				return
			}

			response, err := srv.AuthWorker(ctx.Request.Context(), registration)
			if err != nil {
				abortWithError(ctx, err)
				return
			}

			bark.MarshalResponse(ctx, http.StatusOK, response)
		})

		v1.GET("/suites", bark.SearchableAPI(maxListLimit), bark.ContentTypeAPI(), func(ctx *gin.Context) {
			query := bark.RequireSearchQuery(ctx)
			results, err := srv.ListSuites(ctx.Request.Context(), query)
			if err != nil {
				abortWithError(ctx, err)
				return
			}

			bark.MarshalResponse(ctx, http.StatusOK, bark.NewPaginatedResponse(results, query.Pagination))
		})

		v1.POST("/suites", bark.ContentTypeAPI(), bark.ManifestAPI(suite.KindSuite), func(ctx *gin.Context) {
			created, err := srv.CreateSuite(ctx.Request.Context(), bark.RequireManifest(ctx))
			if err != nil {
				abortWithError(ctx, err)
				return
			}

			bark.MarshalResponse(ctx, http.StatusCreated, created)
		})

		v1.GET("/suites/:id", bark.ContentTypeAPI(), bark.ResourceIDAPI(), func(ctx *gin.Context) {
			entry, err := srv.GetSuite(ctx.Request.Context(), bark.RequireResourceID(ctx).ID)
			if err != nil {
				abortWithError(ctx, err)
				return
			}

			bark.MarshalResponse(ctx, http.StatusOK, entry)
		})

		v1.DELETE("/suites/:id", bark.ResourceIDAPI(), bark.VersionedResourceAPI(), func(ctx *gin.Context) {
			existed, err := srv.DeleteSuite(ctx.Request.Context(), bark.RequireVersionedResource(ctx))
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			if !existed {
				abortWithError(ctx, ErrResourceNotFound)
				return
			}

			ctx.Status(http.StatusNoContent)
		})

		v1.POST("/suites/:id/runs", bark.ContentTypeAPI(), bark.ResourceIDAPI(), func(ctx *gin.Context) {
			response, err := srv.ScheduleRun(ctx.Request.Context(), bark.RequireResourceID(ctx).ID)
			if err != nil {
				abortWithError(ctx, err)
				return
			}

			bark.MarshalResponse(ctx, http.StatusCreated, response)
		})

		v1.GET("/results", bark.SearchableAPI(maxListLimit), bark.ContentTypeAPI(), func(ctx *gin.Context) {
			query := bark.RequireSearchQuery(ctx)
			results, err := srv.ListResults(ctx.Request.Context(), query)
			if err != nil {
				abortWithError(ctx, err)
				return
			}

			bark.MarshalResponse(ctx, http.StatusOK, bark.NewPaginatedResponse(results, query.Pagination))
		})

		v1.GET("/results/:id", bark.ContentTypeAPI(), bark.ResourceIDAPI(), func(ctx *gin.Context) {
			result, err := srv.GetResult(ctx.Request.Context(), bark.RequireResourceID(ctx).ID)
			if err != nil {
				abortWithError(ctx, err)
				return
			}

			bark.MarshalResponse(ctx, http.StatusOK, result)
		})

		v1.PUT("/results/:id", bark.ContentTypeAPI(), bark.AuthBearerAPI(), bark.ResourceIDAPI(), bark.VersionedResourceAPI(), func(ctx *gin.Context) {
			var update struct {
				Status    suite.Status          `form:"status" json:"status" yaml:"status" binding:"required"`
				Artifacts []suite.ArtifactValue `form:"artifacts,omitempty" json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
			}
			if err := ctx.ShouldBind(&update); err != nil {
				abortWithError(ctx, err)
				return
			}

			result, err := srv.UpdateResult(ctx.Request.Context(),
				bark.RequireVersionedResource(ctx),
				bark.RequireBearerToken(ctx),
				update.Status,
				update.Artifacts...,
			)
			if err != nil {
				abortWithError(ctx, err)
				return
			}

			bark.MarshalResponse(ctx, http.StatusOK, result)
		})

		v1.GET("/artifacts/:id", bark.ContentTypeAPI(), bark.ResourceIDAPI(), func(ctx *gin.Context) {
			artifact, err := srv.GetArtifact(ctx.Request.Context(), bark.RequireResourceID(ctx).ID)
			if err != nil {
				abortWithError(ctx, err)
				return
			}

			bark.MarshalResponse(ctx, http.StatusOK, artifact)
		})

		v1.GET("/artifacts/:id/content", bark.ResourceIDAPI(), func(ctx *gin.Context) {
			artifact, err := srv.GetArtifact(ctx.Request.Context(), bark.RequireResourceID(ctx).ID)
			if err != nil {
				abortWithError(ctx, err)
				return
			}

			ctx.Data(http.StatusOK, artifact.MimeType, artifact.Content)
		})
	}

	return router
}
