package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	ginmiddleware "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// NewRateLimiter limits requests per actor, falling back to the client IP
// before authentication. rate uses limiter's format, e.g. "100-M".
func NewRateLimiter(rate string) (gin.HandlerFunc, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", rate, err)
	}

	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix: "booking_api",
	})

	return ginmiddleware.NewMiddleware(limiter.New(store, r), ginmiddleware.WithKeyGetter(rateKey)), nil
}

func rateKey(c *gin.Context) string {
	if actor, ok := ActorFrom(c); ok {
		return "actor:" + actor.ID.String()
	}
	return "ip:" + c.ClientIP()
}
