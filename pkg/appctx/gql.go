package appctx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/sre-norns/gantry/pkg/intercept"
)

// gqlRequest is the wire shape of a GraphQL POST
type gqlRequest struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   any        `json:"data,omitempty"`
	Errors []gqlError `json:"errors,omitempty"`
}

var trafficSeq atomic.Uint64

func (c *Context) gqlRoutes() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/graphql", c.handleGraphQL)
	router.GET("/launchpad", c.handleLaunchpad)

	return router
}

func (c *Context) handleGraphQL(ctx *gin.Context) {
	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gqlResponse{Errors: []gqlError{{Message: err.Error()}}})
		return
	}

	// The HAR recorder consumes the body, hand it a fresh reader
	trafficID := fmt.Sprintf("gql-%d", trafficSeq.Add(1))
	ctx.Request.Body = io.NopCloser(bytes.NewReader(body))
	if err := c.traffic.RecordRequest(trafficID, ctx.Request); err != nil {
		c.logger.Log("msg", "failed to record request", "id", trafficID, "err", err)
	}

	var request gqlRequest
	if err := json.Unmarshal(body, &request); err != nil {
		ctx.JSON(http.StatusBadRequest, gqlResponse{Errors: []gqlError{{Message: err.Error()}}})
		return
	}
	if request.Query == "" {
		ctx.JSON(http.StatusBadRequest, gqlResponse{Errors: []gqlError{{Message: "query is required"}}})
		return
	}

	op := &intercept.Operation{
		Name:      request.OperationName,
		Query:     request.Query,
		Variables: request.Variables,
	}
	if op.Name == "" {
		op.Name = intercept.OperationName(request.Query)
	}

	response := c.resolve(op)

	ctx.JSON(http.StatusOK, response)
	c.recordResponse(trafficID, ctx, response)
}

// resolve routes an operation through the active interceptor, falling back to
// the built-in fixture resolver when interception is disabled
func (c *Context) resolve(op *intercept.Operation) gqlResponse {
	if fn := c.interceptor.Active(); fn != nil {
		result, err := fn(op)
		if err != nil {
			return gqlResponse{Errors: []gqlError{{Message: err.Error()}}}
		}
		if result != nil {
			return gqlResponse{Data: result}
		}
		// nil/nil means pass-through
	}

	return c.resolveBuiltin(op)
}

func (c *Context) resolveBuiltin(op *intercept.Operation) gqlResponse {
	switch op.Name {
	case "Projects":
		return gqlResponse{Data: gin.H{"projects": c.Projects()}}
	case "CurrentProject":
		name := c.Session().Project
		if name == "" {
			return gqlResponse{Errors: []gqlError{{Message: ErrNoProjectOpen.Error()}}}
		}
		return gqlResponse{Data: gin.H{"currentProject": name}}
	case "Scratch":
		return gqlResponse{Data: gin.H{"scratch": c.scratch.Snapshot()}}
	default:
		return gqlResponse{Errors: []gqlError{{Message: fmt.Sprintf("unknown operation %q", op.Name)}}}
	}
}

func (c *Context) recordResponse(trafficID string, ctx *gin.Context, response gqlResponse) {
	payload, err := json.Marshal(response)
	if err != nil {
		return
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json; charset=utf-8")

	err = c.traffic.RecordResponse(trafficID, &http.Response{
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(payload)),
		ContentLength: int64(len(payload)),
		Request:       ctx.Request,
	})
	if err != nil {
		c.logger.Log("msg", "failed to record response", "id", trafficID, "err", err)
	}
}
