package bark

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sre-norns/gantry/pkg/manifest"
)

var (
	ErrUnsupportedMediaType = fmt.Errorf("unsupported content type request")
	ErrInvalidAuthHeader    = fmt.Errorf("invalid Authorization header")
	ErrWrongAPIKind         = fmt.Errorf("invalid resource kind for the API")
)

const (
	responseMarshalKey  = "responseMarshal"
	searchQueryKey      = "searchQuery"
	resourceIDKey       = "resourceId"
	versionedIDKey      = "versionedId"
	versionInfoKey      = "versionInfoKey"
	resourceManifestKey = "resourceManifestKey"
	authBearerKey       = "Bearer"
)

func filterFlags(content string) string {
	for i, char := range content {
		if char == ' ' || char == ';' {
			return content[:i]
		}
	}
	return content
}

func selectAcceptedType(header http.Header) []string {
	accepts := header.Values("Accept")
	result := make([]string, 0, len(accepts))
	for _, a := range accepts {
		result = append(result, filterFlags(a))
	}

	return result
}

type responseHandler func(code int, obj any)

func replyWithAcceptedType(c *gin.Context) (responseHandler, error) {
	for _, contentType := range selectAcceptedType(c.Request.Header) {
		switch contentType {
		case "", "*/*", gin.MIMEJSON:
			return c.JSON, nil
		case gin.MIMEYAML, "text/yaml", "application/yaml", "text/x-yaml":
			return c.YAML, nil
		case gin.MIMEXML, gin.MIMEXML2:
			return c.XML, nil
		}
	}

	return nil, ErrUnsupportedMediaType
}

func MarshalResponse(ctx *gin.Context, code int, responseValue any) {
	marshal := ctx.MustGet(responseMarshalKey).(responseHandler)
	marshal(code, responseValue)
}

func AbortWithError(ctx *gin.Context, code int, errValue error) {
	if apiError, ok := errValue.(*ErrorResponse); ok {
		ctx.AbortWithStatusJSON(apiError.Code, apiError)
		return
	}

	ctx.AbortWithStatusJSON(code, NewErrorResponse(code, errValue))
}

// ContentTypeAPI selects a response encoder based on the Accept header
func ContentTypeAPI() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		marshal, err := replyWithAcceptedType(ctx)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, NewErrorResponse(http.StatusBadRequest, err))
			return
		}

		ctx.Set(responseMarshalKey, marshal)
		ctx.Next()
	}
}

// ResourceIDAPI binds the resource ID from the request path.
// Used in conjunction with `RequireResourceID`
func ResourceIDAPI() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var resourceRequest ResourceRequest
		if err := ctx.BindUri(&resourceRequest); err != nil {
			AbortWithError(ctx, http.StatusNotFound, err)
			return
		}

		ctx.Set(resourceIDKey, resourceRequest)
		ctx.Next()
	}
}

func RequireResourceID(ctx *gin.Context) ResourceRequest {
	return ctx.MustGet(resourceIDKey).(ResourceRequest)
}

func VersionedResourceAPI() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var versionInfo VersionQuery
		if err := ctx.ShouldBindQuery(&versionInfo); err != nil {
			AbortWithError(ctx, http.StatusBadRequest, err)
			return
		}

		if resourceID, ok := ctx.Get(resourceIDKey); ok {
			ctx.Set(versionedIDKey, manifest.NewVersionedID(resourceID.(ResourceRequest).ID, versionInfo.Version))
		}

		ctx.Set(versionInfoKey, versionInfo)
		ctx.Next()
	}
}

func RequireVersionedResource(ctx *gin.Context) manifest.VersionedResourceID {
	return ctx.MustGet(versionedIDKey).(manifest.VersionedResourceID)
}

func SearchableAPI(maxLimit uint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var searchQuery SearchQuery
		if ctx.ShouldBindQuery(&searchQuery) != nil {
			searchQuery.Limit = maxLimit
		}
		searchQuery.Pagination = searchQuery.ClampLimit(maxLimit)
		ctx.Set(searchQueryKey, searchQuery)
		ctx.Next()
	}
}

func RequireSearchQuery(ctx *gin.Context) SearchQuery {
	return ctx.MustGet(searchQueryKey).(SearchQuery)
}

func extractAuthBearer(ctx *gin.Context) (string, error) {
	authorization := ctx.Request.Header.Get("Authorization")
	if authorization == "" {
		return "", ErrInvalidAuthHeader
	}

	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrInvalidAuthHeader
	}

	return parts[1], nil
}

func AuthBearerAPI() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := extractAuthBearer(ctx)
		if err != nil {
			AbortWithError(ctx, http.StatusUnauthorized, err)
			return
		}

		ctx.Set(authBearerKey, token)
		ctx.Next()
	}
}

func RequireBearerToken(ctx *gin.Context) string {
	return ctx.MustGet(authBearerKey).(string)
}

// Monkey-patch GIN to respect other spellings of yaml mime-type
func bindingFor(method, contentType string) binding.Binding {
	switch contentType {
	case gin.MIMEYAML, "text/yaml", "application/yaml", "text/x-yaml":
		return binding.YAML
	case "", "*/*", gin.MIMEJSON:
		return binding.JSON
	default:
		return binding.Default(method, contentType)
	}
}

// ManifestAPI binds a typed resource manifest from the request body
func ManifestAPI(kind manifest.Kind) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		m := manifest.ResourceManifest{
			TypeMeta: manifest.TypeMeta{
				Kind: kind, // Assume correct kind in case of requests with min info
			},
		}
		if err := ctx.ShouldBindWith(&m, bindingFor(ctx.Request.Method, ctx.ContentType())); err != nil {
			AbortWithError(ctx, http.StatusBadRequest, err)
			return
		}

		if m.Kind == "" {
			m.Kind = kind
		} else if m.Kind != kind { // validate that the request is for the correct manifest type:
			AbortWithError(ctx, http.StatusBadRequest, ErrWrongAPIKind)
			return
		}

		ctx.Set(resourceManifestKey, m)
		ctx.Next()
	}
}

func RequireManifest(ctx *gin.Context) manifest.ResourceManifest {
	return ctx.MustGet(resourceManifestKey).(manifest.ResourceManifest)
}
