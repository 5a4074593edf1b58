// Package api exposes the exploration controller over HTTP/JSON. Each
// browser session maps to one controller; every transition endpoint returns
// the resulting view update for the client to apply.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gridlume/electromap/explore"
	"github.com/gridlume/electromap/internal/logging"
	"github.com/gridlume/electromap/model"
	"github.com/gridlume/electromap/scenario"
)

// Server routes session transitions to their controllers.
type Server struct {
	sessions *Manager
	router   *gin.Engine
	log      logging.Logger
}

// NewServer builds the HTTP surface. Extra middleware (metrics, tracing) is
// applied to every route.
func NewServer(sessions *Manager, log logging.Logger, middleware ...gin.HandlerFunc) *Server {
	if log == nil {
		log = logging.Noop()
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware...)

	s := &Server{sessions: sessions, router: router, log: log}
	s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	s.router.GET("/healthz", func(g *gin.Context) {
		g.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.sessions.Len()})
	})

	api := s.router.Group("/api")
	{
		api.POST("/sessions", s.createSession)
		api.DELETE("/sessions/:id", s.closeSession)

		sess := api.Group("/sessions/:id")
		{
			sess.POST("/home", s.transition(func(c *explore.Controller, _ *gin.Context) (*explore.Update, error) {
				return c.GoHome(), nil
			}))
			sess.POST("/about", s.transition(func(c *explore.Controller, _ *gin.Context) (*explore.Update, error) {
				return c.GoAbout(), nil
			}))
			sess.POST("/countries", s.transition(func(c *explore.Controller, _ *gin.Context) (*explore.Update, error) {
				return c.ChooseCountryScreen(), nil
			}))
			sess.POST("/country", s.selectCountry)
			sess.POST("/mode/plan", s.transition(func(c *explore.Controller, _ *gin.Context) (*explore.Update, error) {
				return c.EnterPlan()
			}))
			sess.POST("/mode/find", s.transition(func(c *explore.Controller, _ *gin.Context) (*explore.Update, error) {
				return c.EnterFind()
			}))

			sess.PUT("/scenarios/:scenario/params/:name", s.setParameter)
			sess.POST("/scenarios/:scenario/multi-factor", s.setMultiFactor)

			sess.POST("/run", s.transition(func(c *explore.Controller, g *gin.Context) (*explore.Update, error) {
				return c.Run(g.Request.Context())
			}))

			sess.POST("/dynamic", s.setDynamic)
			sess.POST("/dynamic/next", s.transition(func(c *explore.Controller, _ *gin.Context) (*explore.Update, error) {
				return c.DynamicNext()
			}))
			sess.POST("/dynamic/prev", s.transition(func(c *explore.Controller, _ *gin.Context) (*explore.Update, error) {
				return c.DynamicPrev()
			}))

			sess.POST("/cluster", s.clusterSelected)
			sess.POST("/zoom/retry", s.transition(func(c *explore.Controller, g *gin.Context) (*explore.Update, error) {
				return c.RetryBuildings(g.Request.Context())
			}))
			sess.POST("/zoom/cancel", s.transition(func(c *explore.Controller, _ *gin.Context) (*explore.Update, error) {
				return c.CancelZoom()
			}))
			sess.POST("/zoom/out", s.transition(func(c *explore.Controller, _ *gin.Context) (*explore.Update, error) {
				return c.ZoomOut()
			}))
		}
	}
}

func (s *Server) createSession(g *gin.Context) {
	sess := s.sessions.Create()
	ctx, log := logging.WithSessionLogger(g.Request.Context(), s.log)
	log.Info(ctx, "session opened", logging.String("session", sess.ID))
	g.JSON(http.StatusCreated, gin.H{
		"session": sess.ID,
		"update":  sess.Controller.GoHome(),
	})
}

func (s *Server) closeSession(g *gin.Context) {
	if !s.sessions.Close(g.Param("id")) {
		g.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	g.Status(http.StatusNoContent)
}

// transition wraps the common shape of a session endpoint: resolve the
// session, apply the controller call, map the error, return the update.
func (s *Server) transition(apply func(*explore.Controller, *gin.Context) (*explore.Update, error)) gin.HandlerFunc {
	return func(g *gin.Context) {
		sess, ok := s.sessions.Get(g.Param("id"))
		if !ok {
			g.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
			return
		}
		update, err := apply(sess.Controller, g)
		if err != nil {
			g.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		g.JSON(http.StatusOK, update)
	}
}

type countryRequest struct {
	Country string `json:"country" binding:"required"`
}

func (s *Server) selectCountry(g *gin.Context) {
	var req countryRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.transition(func(c *explore.Controller, g *gin.Context) (*explore.Update, error) {
		return c.SelectCountry(g.Request.Context(), req.Country)
	})(g)
}

// paramRequest carries either a scalar (single sliders) or a lo/hi pair
// (range sliders); the descriptor decides which shape applies.
type paramRequest struct {
	Value *float64 `json:"value"`
	Lo    *float64 `json:"lo"`
	Hi    *float64 `json:"hi"`
}

func (s *Server) setParameter(g *gin.Context) {
	key := scenario.Key(g.Param("scenario"))
	name := g.Param("name")
	desc, ok := scenario.FindDescriptor(key, name)
	if !ok {
		g.JSON(http.StatusBadRequest, gin.H{"error": "unknown parameter " + string(key) + "/" + name})
		return
	}

	var req paramRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var value scenario.Value
	switch desc.Kind {
	case scenario.KindRange:
		if req.Lo == nil || req.Hi == nil {
			g.JSON(http.StatusBadRequest, gin.H{"error": "range parameter requires lo and hi"})
			return
		}
		value = scenario.Value{Kind: scenario.KindRange, Lo: *req.Lo, Hi: *req.Hi}
	default:
		if req.Value == nil {
			g.JSON(http.StatusBadRequest, gin.H{"error": "single parameter requires value"})
			return
		}
		value = scenario.Value{Kind: scenario.KindSingle, Scalar: *req.Value}
	}

	s.transition(func(c *explore.Controller, _ *gin.Context) (*explore.Update, error) {
		return c.SetParameter(key, name, value)
	})(g)
}

type multiFactorRequest struct {
	On bool `json:"on"`
}

func (s *Server) setMultiFactor(g *gin.Context) {
	sess, ok := s.sessions.Get(g.Param("id"))
	if !ok {
		g.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	var req multiFactorRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := sess.Controller.SetMultiFactor(scenario.Key(g.Param("scenario")), req.On); err != nil {
		g.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	g.Status(http.StatusNoContent)
}

type dynamicRequest struct {
	On bool `json:"on"`
}

func (s *Server) setDynamic(g *gin.Context) {
	var req dynamicRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.transition(func(c *explore.Controller, _ *gin.Context) (*explore.Update, error) {
		return c.SetDynamic(req.On)
	})(g)
}

func (s *Server) clusterSelected(g *gin.Context) {
	var feature model.Feature
	if err := g.ShouldBindJSON(&feature); err != nil {
		g.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.transition(func(c *explore.Controller, g *gin.Context) (*explore.Update, error) {
		return c.ClusterSelected(g.Request.Context(), &feature)
	})(g)
}

// statusFor maps controller errors onto HTTP statuses: invalid input is 400,
// state conflicts (busy guards, wrong mode) are 409.
func statusFor(err error) int {
	switch {
	case errors.Is(err, scenario.ErrUnknownScenario),
		errors.Is(err, scenario.ErrUnknownParameter),
		errors.Is(err, scenario.ErrNotInitialized):
		return http.StatusBadRequest
	case errors.Is(err, explore.ErrRunInFlight),
		errors.Is(err, explore.ErrCountryLoading),
		errors.Is(err, explore.ErrZoomBusy),
		errors.Is(err, explore.ErrWrongMode),
		errors.Is(err, explore.ErrDynamicDenied),
		errors.Is(err, explore.ErrNoCountry),
		errors.Is(err, explore.ErrNoDynamicPlan),
		errors.Is(err, explore.ErrNotPending),
		errors.Is(err, explore.ErrNotZoomedIn):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
