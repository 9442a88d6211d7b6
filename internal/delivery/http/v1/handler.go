package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"worksite/internal/services"
)

type Handler interface {
	HandleActorMiddleware(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleStartTask(c *gin.Context)
	HandleSubmitResult(c *gin.Context)
	HandleReviewTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)

	HandleListTasks(c *gin.Context)
	HandleDeleteCandidates(c *gin.Context)
}

type handlerImpl struct {
	logger  zerolog.Logger
	tasks   services.TaskService
	listing services.ListingService

	jwtIssuer     string
	jwtSigningKey []byte
}

func New(
	logger zerolog.Logger,
	taskService services.TaskService,
	listingService services.ListingService,
	jwtIssuer string,
	jwtSigningKey string,
) Handler {
	return &handlerImpl{
		logger:        logger,
		tasks:         taskService,
		listing:       listingService,
		jwtIssuer:     jwtIssuer,
		jwtSigningKey: []byte(jwtSigningKey),
	}
}
