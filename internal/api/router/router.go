package router

import (
	"net/http"

	"github.com/cuongbtq/screenshot-service/internal/api/handler"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))

	// Liveness check used by the load balancer
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Up and running!")
	})

	r.GET("/health", func(c *gin.Context) {
		if err := deps.Service.Ping(c.Request.Context()); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": deps.ServiceName,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": deps.ServiceName,
		})
	})

	jobHandler := handler.NewJobHandler(deps)

	jobs := r.Group("/job")
	{
		// POST /job - Submit a URI to be captured
		jobs.POST("", jobHandler.CreateJob)

		// GET /job/:id - Get the status of a job
		jobs.GET("/:id", jobHandler.GetJob)
	}

	return r
}

// NewHandler returns the router wrapped with CORS handling
func NewHandler(deps *handler.Dependencies) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept"},
	})
	return c.Handler(SetupRouter(deps))
}
