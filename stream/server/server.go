// Package server exposes a stream.Manager over HTTP.
package server

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tmpim/aavideo"
	"github.com/tmpim/aavideo/stream"
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 5 * time.Second,
}

type stateResponse struct {
	Playback stream.PlaybackState `json:"playback"`
	Queue    []string             `json:"queue"`
}

// New returns the control API for mgr.
func New(mgr *stream.Manager) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	api := e.Group("/api")

	state := func(c echo.Context, code int) error {
		return c.JSON(code, stateResponse{
			Playback: mgr.State(),
			Queue:    mgr.Queue().Items(),
		})
	}

	api.GET("/state", func(c echo.Context) error {
		return state(c, http.StatusOK)
	})

	api.GET("/client", func(c echo.Context) error {
		ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}
		defer ws.Close()

		mgr.HandleConn(ws)

		return nil
	})

	api.POST("/stop", func(c echo.Context) error {
		if _, err := mgr.Stop(); err != nil {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}

		return state(c, http.StatusOK)
	})

	api.POST("/play/file", func(c echo.Context) error {
		path, err := readTarget(c)
		if err != nil {
			return err
		}

		log.Println("aavideo stream: enqueue file:", path)
		mgr.Enqueue(path)

		return state(c, http.StatusAccepted)
	})

	api.POST("/play/url", func(c echo.Context) error {
		playURL, err := readTarget(c)
		if err != nil {
			return err
		}

		if err := stream.AllowedURL(playURL); err != nil {
			var acqErr *aavideo.AcquisitionError
			if errors.As(err, &acqErr) && acqErr.Err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, acqErr.Err.Error())
			}
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		log.Println("aavideo stream: enqueue URL:", playURL)
		mgr.Enqueue(playURL)

		return state(c, http.StatusAccepted)
	})

	return e
}

func readTarget(c echo.Context) (string, error) {
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, 4096))
	if err != nil {
		return "", err
	}

	target := strings.TrimSpace(string(data))
	if target == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "empty request body")
	}

	return target, nil
}
