package appctx

import (
	"errors"
	"net"
	"net/http"
)

// endpoint is a child HTTP server on an ephemeral loopback port
type endpoint struct {
	listener net.Listener
	server   *http.Server
}

func startEndpoint(handler http.Handler) (*endpoint, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	result := &endpoint{
		listener: listener,
		server:   &http.Server{Handler: handler},
	}

	go func() {
		// ErrServerClosed is the normal way out on reset
		_ = result.server.Serve(listener)
	}()

	return result, nil
}

func (e *endpoint) port() int {
	return e.listener.Addr().(*net.TCPAddr).Port
}

func (e *endpoint) close() error {
	if e == nil {
		return nil
	}

	err := e.server.Close()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// StartGql starts the fixture GraphQL endpoint and records its port in the session
func (c *Context) StartGql() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gql != nil {
		return c.gql.port(), nil
	}

	ep, err := startEndpoint(c.gqlRoutes())
	if err != nil {
		return 0, err
	}

	c.gql = ep
	c.sess.GqlPort = ep.port()

	return c.sess.GqlPort, nil
}

// StartApp starts the application endpoint and records its port in the session
func (c *Context) StartApp() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.app != nil {
		return c.app.port(), nil
	}

	ep, err := startEndpoint(c.appRoutes())
	if err != nil {
		return 0, err
	}

	c.app = ep
	c.sess.AppPort = ep.port()

	return c.sess.AppPort, nil
}

func (c *Context) closeEndpointsLocked() error {
	var result error
	if err := c.gql.close(); err != nil {
		result = err
	}
	if err := c.app.close(); err != nil && result == nil {
		result = err
	}

	c.gql = nil
	c.app = nil

	return result
}
