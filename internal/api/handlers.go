package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"WikiFetch/internal/broadcast"
	"WikiFetch/internal/domain"
)

type articleResponse struct {
	domain.FetchResult
	Shared bool `json:"shared"`
}

func titleParam(c echo.Context) (domain.Title, error) {
	site, err := url.PathUnescape(c.Param("site"))
	if err != nil {
		return domain.Title{}, fmt.Errorf("%w: site: %w", domain.ErrInvalidArgument, err)
	}
	name, err := url.PathUnescape(c.Param("title"))
	if err != nil {
		return domain.Title{}, fmt.Errorf("%w: title: %w", domain.ErrInvalidArgument, err)
	}
	return domain.NewTitle(site, name)
}

func (s *Server) handleFetch(c echo.Context) error {
	title, err := titleParam(c)
	if err != nil {
		return mapDomainError(err)
	}

	// The shared fetch outlives any single request so that a client that
	// disconnects does not fail the others waiting on it.
	fetchCtx := context.WithoutCancel(c.Request().Context())
	ch := s.inflight.DoChan(title.Key(), func() (interface{}, error) {
		return s.fetcher.Fetch(fetchCtx, title, nil).Wait(fetchCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return mapDomainError(res.Err)
		}
		result := res.Val.(domain.FetchResult)
		return c.JSON(http.StatusOK, articleResponse{FetchResult: result, Shared: res.Shared})
	case <-c.Request().Context().Done():
		return c.Request().Context().Err()
	}
}

func (s *Server) handleCached(c echo.Context) error {
	title, err := titleParam(c)
	if err != nil {
		return mapDomainError(err)
	}

	article, ok, err := s.fetcher.Lookup(c.Request().Context(), title)
	if err != nil {
		return mapDomainError(err)
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "article is not cached")
	}
	return c.JSON(http.StatusOK, domain.NewFetchResult(title, article))
}

func (s *Server) handleSearch(c echo.Context) error {
	if s.searcher == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "search is not configured")
	}

	site, err := url.PathUnescape(c.Param("site"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid site")
	}

	results, err := s.searcher.Search(c.Request().Context(), site, c.QueryParam("q"))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, results)
}

// handleEvents streams completion events as server-sent events until the
// client goes away.
func (s *Server) handleEvents(c echo.Context) error {
	if s.bus == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "events are not configured")
	}

	w := c.Response()
	flusher, ok := w.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming not supported")
	}

	events := make(chan broadcast.Event, eventBuffer)
	sub := s.bus.Subscribe(broadcast.ArticleFetchedEvent, func(_ context.Context, evt broadcast.Event) {
		select {
		case events <- evt:
		default:
			s.logger.Warn("dropping event for slow stream", "event_id", evt.ID)
		}
	})
	defer sub.Unsubscribe()

	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("event stream closed by client")
			return nil
		case <-heartbeat.C:
			if _, err := w.Write([]byte(": heartbeat\n\n")); err != nil {
				return nil
			}
			flusher.Flush()
		case evt := <-events:
			payload, err := json.Marshal(evt)
			if err != nil {
				s.logger.Error("marshal event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", evt.ID, evt.Name, payload); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}

// mapDomainError converts a domain error into an appropriate echo.HTTPError.
func mapDomainError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrTransport),
		errors.Is(err, domain.ErrDeserialization):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	case errors.Is(err, domain.ErrStore):
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	case errors.Is(err, domain.ErrCancelled):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
