package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sublyime/plumewatch/internal/api/models"
	"github.com/sublyime/plumewatch/internal/api/response"
	"github.com/sublyime/plumewatch/internal/weather"
	"github.com/sublyime/plumewatch/pkg/geo"
)

// WeatherHandler handles weather observation endpoints.
type WeatherHandler struct {
	weather *weather.Service
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(weatherService *weather.Service) *WeatherHandler {
	return &WeatherHandler{
		weather: weatherService,
	}
}

// GetCurrentWeather handles GET /v1/weather?lat=&lon= - the current
// observation at a point, as the dispersion pipeline would see it.
func (h *WeatherHandler) GetCurrentWeather(w http.ResponseWriter, r *http.Request) {
	point, errs := parsePoint(r)
	if len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	obs, err := h.weather.GetCurrentWeather(r.Context(), point)
	if err != nil {
		if errors.Is(err, weather.ErrProviderUnavailable) {
			response.ServiceUnavailable(w, r, "weather provider unavailable")
			return
		}
		response.InternalError(w, r, "failed to fetch weather")
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=60")
	response.JSON(w, r, http.StatusOK, models.WeatherFromDomain(obs))
}

func parsePoint(r *http.Request) (geo.Point, []models.FieldError) {
	var errs []models.FieldError

	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		errs = append(errs, models.FieldError{Field: "lat", Message: "latitude must be a number between -90 and 90", Code: "OUT_OF_RANGE"})
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		errs = append(errs, models.FieldError{Field: "lon", Message: "longitude must be a number between -180 and 180", Code: "OUT_OF_RANGE"})
	}
	if len(errs) > 0 {
		return geo.Point{}, errs
	}
	return geo.Point{Lat: lat, Lon: lon}, nil
}
