package middleware

import (
	"fmt"
	"net/http"

	"github.com/kreditkeliling/kupon-backend-go/internal/handler/http/response"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit limits requests per client IP using an in-process store. rate is
// in limiter's formatted syntax, e.g. "300-M".
func RateLimit(rate string) (func(http.Handler) http.Handler, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}

	instance := limiter.New(memory.NewStore(), parsed)
	mw := stdlib.NewMiddleware(instance,
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			response.TooManyRequests(w, "Too many requests")
		}),
	)

	return mw.Handler, nil
}
