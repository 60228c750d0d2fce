// Package apiserver exposes evaluation over HTTP. Instances are posted in the
// extended CNF text format and answered with one formatted value per query.
package apiserver

import (
	goctx "context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amcframework/amc/config"
	"github.com/amcframework/amc/eval"
	"github.com/amcframework/amc/log"
	"github.com/amcframework/amc/util"

	"github.com/amcframework/amc/cnf"
)

// APIServer runs a HTTP server accepting evaluation requests
type APIServer struct {
	router     *gin.Engine
	dispatcher *eval.Dispatcher
	gen        *util.Counter
	logger     *log.Logger

	server *http.Server
	addr   string
}

// NewAPIServer instantiates APIServer
func NewAPIServer(cfg *config.Config, dispatcher *eval.Dispatcher, logger *log.Logger) *APIServer {
	server := &APIServer{
		dispatcher: dispatcher,
		gen:        util.NewCounter(),
		addr:       cfg.APIServerAddr,
		logger:     logger.With(log.LogParams{"service": "APIServer"}),
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(server.logMiddleware)

	router.POST("/evaluate", server.handleEvaluate)
	router.GET("/health", server.handleHealth)

	server.router = router
	server.server = &http.Server{
		Addr:    server.addr,
		Handler: router,
	}
	return server
}

func (a *APIServer) logMiddleware(c *gin.Context) {
	start := time.Now()
	path := c.Request.URL.Path
	raw := c.Request.URL.RawQuery

	c.Next()

	end := time.Now()
	if raw != "" {
		path = path + "?" + raw
	}
	a.logger.With(log.LogParams{
		"latency":     end.Sub(start).String(),
		"client_ip":   c.ClientIP(),
		"method":      c.Request.Method,
		"status_code": c.Writer.Status(),
		"path":        path,
	}).Debug("Handled request")
}

// handleEvaluate reads an extended CNF from the request body and evaluates
// it. The strategy and preprocess query parameters override the defaults.
func (a *APIServer) handleEvaluate(c *gin.Context) {
	strategy := c.DefaultQuery("strategy", eval.StrategyFlexible)
	preprocess, err := strconv.ParseBool(c.DefaultQuery("preprocess", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "preprocess must be a boolean"})
		return
	}
	instance, err := cnf.Parse(c.Request.Body)
	if err != nil {
		var ferr *cnf.FormatError
		if errors.As(err, &ferr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	id := a.gen.Next()
	a.logger.With(log.LogParams{
		"request":  id,
		"vars":     instance.NrVars,
		"clauses":  len(instance.Clauses),
		"strategy": strategy,
	}).Info("Evaluating instance")

	values, err := a.dispatcher.Evaluate(instance, strategy, preprocess)
	if err != nil {
		if errors.Is(err, eval.ErrUnknownStrategy) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a.logger.With(log.LogParams{"request": id, "err": err}).Error("Evaluation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	_, _, _, outer := instance.WeightsView()
	results := make([]string, len(values))
	for i, v := range values {
		results[i] = outer.Format(v)
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (a *APIServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Start starts the APIServer
func (a *APIServer) Start() {
	go func() {
		a.logger.With(log.LogParams{
			"addr": a.addr,
		}).Info("API server starting!")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.With(log.LogParams{
				"addr": a.addr,
				"err":  err,
			}).Fatal("API server closed!")
		}
	}()
}

// Stop stops the APIServer
func (a *APIServer) Stop() {
	ctx, cancel := goctx.WithTimeout(goctx.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.With(log.LogParams{"err": err}).Error("Failed to shutdown API server")
	}
	a.logger.Info("API server stopped")
}
