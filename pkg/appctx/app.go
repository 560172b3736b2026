package appctx

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Fixture pages stand in for the application front ends. A loaded page picks
// up its GraphQL port and any pre-seeded initial data from injected globals.
var appPage = template.Must(template.New("app").Parse(`<!DOCTYPE html>
<html>
<head><title>gantry fixture app</title></head>
<body data-session="{{.SessionID}}" data-project="{{.Project}}">
<script>
window.__GANTRY_GQL_PORT__ = {{.GqlPort}};
window.__GANTRY_INITIAL_STATE__ = {{.InitialState}};
</script>
</body>
</html>
`))

var launchpadPage = template.Must(template.New("launchpad").Parse(`<!DOCTYPE html>
<html>
<head><title>gantry launchpad</title></head>
<body data-session="{{.SessionID}}">
<script>
window.__GANTRY_GQL_PORT__ = {{.GqlPort}};
</script>
</body>
</html>
`))

type pageData struct {
	SessionID    string
	Project      string
	GqlPort      int
	InitialState template.JS
}

func (c *Context) appRoutes() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", c.handleAppPage)
	router.GET("/bootstrap.json", c.handleBootstrap)

	return router
}

func (c *Context) pageData() pageData {
	sess := c.Session()

	return pageData{
		SessionID:    sess.ID,
		Project:      sess.Project,
		GqlPort:      sess.GqlPort,
		InitialState: template.JS(c.InitialState()),
	}
}

func (c *Context) handleAppPage(ctx *gin.Context) {
	ctx.Status(http.StatusOK)
	ctx.Header("Content-Type", "text/html; charset=utf-8")

	if err := appPage.Execute(ctx.Writer, c.pageData()); err != nil {
		c.logger.Log("msg", "failed to render app page", "err", err)
	}
}

func (c *Context) handleLaunchpad(ctx *gin.Context) {
	ctx.Status(http.StatusOK)
	ctx.Header("Content-Type", "text/html; charset=utf-8")

	if err := launchpadPage.Execute(ctx.Writer, c.pageData()); err != nil {
		c.logger.Log("msg", "failed to render launchpad page", "err", err)
	}
}

// handleBootstrap serves the pre-seeded initial data as plain JSON
func (c *Context) handleBootstrap(ctx *gin.Context) {
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", c.InitialState())
}
