// Package server exposes the webhook HTTP surface: a service card, a
// health endpoint, and the GitHub webhook receiver. Events are
// acknowledged immediately and processed on a background dispatcher.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ttbonn/reviewagent/internal/adapter/httpx"
	"github.com/ttbonn/reviewagent/internal/domain"
	"github.com/ttbonn/reviewagent/internal/store"
	reviewrun "github.com/ttbonn/reviewagent/internal/usecase/review"
	"github.com/ttbonn/reviewagent/internal/version"
)

// Reviewer runs a review against a pull request.
type Reviewer interface {
	Run(ctx context.Context, req reviewrun.Request) (*reviewrun.Result, error)
}

// IssueResponder handles newly opened issues.
type IssueResponder interface {
	Respond(ctx context.Context, owner, repo string, issue domain.Issue) error
}

// Config holds the server settings.
type Config struct {
	Address string
	Port    int

	// QueueSize and Workers tune the background dispatcher.
	QueueSize int
	Workers   int
}

// Server is the webhook HTTP server.
type Server struct {
	echo       *echo.Echo
	config     Config
	dispatcher *Dispatcher
	reviewer   Reviewer
	responder  IssueResponder
	ledger     store.Store
	logger     httpx.Logger
	started    time.Time
}

// New constructs the server and registers its routes.
func New(config Config, reviewer Reviewer, responder IssueResponder, ledger store.Store, logger httpx.Logger) *Server {
	if logger == nil {
		logger = &httpx.SilentLogger{}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:       e,
		config:     config,
		dispatcher: NewDispatcher(config.QueueSize, config.Workers, logger),
		reviewer:   reviewer,
		responder:  responder,
		ledger:     ledger,
		logger:     logger,
		started:    time.Now(),
	}

	e.GET("/", s.handleRoot)
	e.GET("/healthz", s.handleHealth)
	e.POST("/webhook", s.handleWebhook)

	return s
}

// Start serves until the context is cancelled, then drains the
// dispatcher and shuts the listener down.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", s.config.Address, s.config.Port)
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.dispatcher.Shutdown(shutdownCtx); err != nil {
		s.logger.LogWarning(shutdownCtx, "dispatcher drain incomplete", map[string]interface{}{"error": err.Error()})
	}
	return s.echo.Shutdown(shutdownCtx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service": "reviewagent",
		"version": version.Version,
		"webhook": "/webhook",
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

// handleWebhook acknowledges the delivery and enqueues any resulting
// work. Redelivered events (same X-GitHub-Delivery ID) are dropped.
func (s *Server) handleWebhook(c echo.Context) error {
	event := c.Request().Header.Get("X-GitHub-Event")
	deliveryID := c.Request().Header.Get("X-GitHub-Delivery")

	if deliveryID != "" {
		fresh, err := s.ledger.MarkDelivery(c.Request().Context(), deliveryID)
		if err != nil {
			s.logger.LogWarning(c.Request().Context(), "delivery dedup failed", map[string]interface{}{"error": err.Error()})
		} else if !fresh {
			return c.JSON(http.StatusOK, map[string]string{"status": "duplicate delivery ignored"})
		}
	}

	switch event {
	case "ping":
		var payload pingEvent
		if err := json.NewDecoder(c.Request().Body).Decode(&payload); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "pong", "zen": payload.Zen})

	case "pull_request":
		return s.handlePullRequestEvent(c)

	case "issues":
		return s.handleIssuesEvent(c)

	case "push":
		var payload pushEvent
		if err := json.NewDecoder(c.Request().Body).Decode(&payload); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		}
		s.logger.LogInfo(c.Request().Context(), "push received", map[string]interface{}{
			"repository": payload.Repository.FullName,
			"ref":        payload.Ref,
			"commits":    len(payload.Commits),
		})
		return c.JSON(http.StatusOK, map[string]string{"status": "push logged"})

	default:
		return c.JSON(http.StatusOK, map[string]string{"status": "event ignored", "event": event})
	}
}

func (s *Server) handlePullRequestEvent(c echo.Context) error {
	var payload pullRequestEvent
	if err := json.NewDecoder(c.Request().Body).Decode(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	if !reviewActions[payload.Action] {
		return c.JSON(http.StatusOK, map[string]string{"status": "action ignored", "action": payload.Action})
	}

	owner := payload.Repository.Owner.Login
	repo := payload.Repository.Name
	number := payload.Number
	if number == 0 {
		number = payload.PullRequest.Number
	}

	queued := s.dispatcher.Enqueue(Job{
		Name: fmt.Sprintf("review %s/%s#%d", owner, repo, number),
		Run: func(ctx context.Context) error {
			_, err := s.reviewer.Run(ctx, reviewrun.Request{Owner: owner, Repo: repo, PullNumber: number})
			return err
		},
	})
	if !queued {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "queue full"})
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "review queued"})
}

func (s *Server) handleIssuesEvent(c echo.Context) error {
	var payload issuesEvent
	if err := json.NewDecoder(c.Request().Body).Decode(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	if payload.Action != "opened" {
		return c.JSON(http.StatusOK, map[string]string{"status": "action ignored", "action": payload.Action})
	}

	owner := payload.Repository.Owner.Login
	repo := payload.Repository.Name
	issue := domain.Issue{
		Number:  payload.Issue.Number,
		Title:   payload.Issue.Title,
		Body:    payload.Issue.Body,
		State:   payload.Issue.State,
		Author:  payload.Issue.User.Login,
		HTMLURL: payload.Issue.HTMLURL,
	}

	queued := s.dispatcher.Enqueue(Job{
		Name: fmt.Sprintf("respond %s/%s#%d", owner, repo, issue.Number),
		Run: func(ctx context.Context) error {
			return s.responder.Respond(ctx, owner, repo, issue)
		},
	})
	if !queued {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "queue full"})
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "response queued"})
}
