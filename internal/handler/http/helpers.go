package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/kreditkeliling/kupon-backend-go/internal/handler/http/response"
)

func getUserIDFromContext(r *http.Request) string {
	_, claims, _ := jwtauth.FromContext(r.Context())
	if userID, ok := claims["user_id"].(string); ok {
		return userID
	}
	return ""
}

// decodeJSON writes a 400 and returns false when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}, op string) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		slog.Error(op+" decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

// getYearQueryParam defaults to the current year when the parameter is absent.
func getYearQueryParam(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return time.Now().Year(), true
	}
	year, err := strconv.Atoi(val)
	if err != nil {
		response.BadRequest(w, "invalid "+key+" parameter", nil)
		return 0, false
	}
	return year, true
}
