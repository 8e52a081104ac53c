package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/berfenger/sundispatch/internal/core/domain"
	"github.com/berfenger/sundispatch/internal/util/actorutil"

	"github.com/carlmjohnson/versioninfo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type presetView struct {
	domain.Preset
	TotalCapacityWatt float64 `json:"total_capacity_watt"`
}

type snapshotView struct {
	Preset   string               `json:"preset"`
	Action   domain.Action        `json:"action"`
	Snapshot domain.StateSnapshot `json:"snapshot"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/version", s.VersionHandler)
	e.GET("/presets", s.PresetsHandler)
	e.GET("/presets/:name", s.PresetHandler)
	e.GET("/snapshot", s.SnapshotHandler)
	e.POST("/dispatch", s.DispatchHandler)
	e.POST("/reset", s.ResetHandler)
	if s.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 2*REQUEST_TIMEOUT).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) VersionHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"version":  versioninfo.Short(),
		"revision": versioninfo.Revision,
	})
}

func (s *Server) PresetsHandler(c echo.Context) error {
	var presets []presetView
	for _, name := range s.registry.Names() {
		preset, err := s.registry.Get(name)
		if err != nil {
			return err
		}
		presets = append(presets, presetView{
			Preset:            preset,
			TotalCapacityWatt: preset.TotalCapacityWatt(),
		})
	}
	return c.JSON(http.StatusOK, presets)
}

func (s *Server) PresetHandler(c echo.Context) error {
	preset, err := s.registry.Get(c.Param("name"))
	if errors.Is(err, domain.ErrConfigurationNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	} else if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, presetView{
		Preset:            preset,
		TotalCapacityWatt: preset.TotalCapacityWatt(),
	})
}

func (s *Server) SnapshotHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetSnapshotRequest{}, REQUEST_TIMEOUT).Result()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	resp, ok := res.(domain.GetSnapshotResponse)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected response")
	}
	if resp.HasResponseError() {
		return echo.NewHTTPError(http.StatusInternalServerError, resp.GetResponseError().Error())
	}
	return c.JSON(http.StatusOK, snapshotView{
		Preset:   resp.Preset.Name,
		Action:   resp.LastAction,
		Snapshot: resp.Snapshot,
	})
}

func (s *Server) DispatchHandler(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	reading, err := actorutil.DecodeReading(body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := s.rootContext.RequestFuture(s.masterActor, domain.DispatchRequest{
		Reading: *reading,
	}, REQUEST_TIMEOUT).Result()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	resp, ok := res.(domain.DispatchResponse)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected response")
	}
	if resp.HasResponseError() {
		if errors.Is(resp.GetResponseError(), domain.ErrInvalidReading) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, resp.GetResponseError().Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, resp.GetResponseError().Error())
	}
	return c.JSON(http.StatusOK, resp.Decision)
}

func (s *Server) ResetHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ResetRequest{}, REQUEST_TIMEOUT).Result()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	resp, ok := res.(domain.ResetResponse)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected response")
	}
	return c.JSON(http.StatusOK, resp.Snapshot)
}
