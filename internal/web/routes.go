// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/kotae/internal/guard"
	"github.com/taibuivan/kotae/internal/platform/config"
	"github.com/taibuivan/kotae/internal/platform/constants"
	"github.com/taibuivan/kotae/internal/platform/ctxutil"
	"github.com/taibuivan/kotae/internal/platform/middleware"
	"github.com/taibuivan/kotae/internal/platform/respond"
	"github.com/taibuivan/kotae/internal/session"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Route Table

// pageRoutes is the navigation table of the shell, mirroring the page
// structure of the frontend it hosts. Zero-value metadata means
// "authentication required, no role gate".
var pageRoutes = []struct {
	pattern string
	route   guard.Route
}{
	{"/login", guard.Route{Name: "login", Title: "登录", Public: true}},
	{"/register", guard.Route{Name: "register", Title: "注册", Public: true}},
	{"/404", guard.Route{Name: "notFound", Title: "页面未找到", Public: true}},
	{"/", guard.Route{Name: "index", Title: "题库选择"}},
	{"/practice", guard.Route{Name: "practice", Title: "在线练习"}},
	{"/completed", guard.Route{Name: "completed", Title: "练习完成"}},
	{"/profile", guard.Route{Name: "profile", Title: "个人资料"}},
	{"/stats", guard.Route{Name: "stats", Title: "使用统计"}},
	{"/settings", guard.Route{Name: "settings", Title: "设置"}},
	{"/admin", guard.Route{Name: "admin", Title: "系统管理", RequiresAdmin: true}},
	{"/admin/usage-stats", guard.Route{Name: "admin-usage-stats", Title: "使用统计", RequiresAdmin: true}},
	{"/vip/stats", guard.Route{Name: "vip-stats", Title: "学习统计", RequiresVIP: true}},
	{"/vip/export", guard.Route{Name: "vip-export", Title: "错题导出", RequiresVIP: true}},
	{"/vip/collections", guard.Route{Name: "vip-collections", Title: "错题集管理", RequiresVIP: true}},
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers the page and app route groups.
func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger, registry *Registry, gate *guard.Guard, handler *Handler) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(ctx))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg, cfg.ExtraOrigins))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	r.Get("/health", func(writer http.ResponseWriter, request *http.Request) {
		respond.OK(writer, map[string]string{"status": "ok"})
	})

	// stores resolves the per-browser auth store for the guard, minting the
	// session cookie on first contact.
	stores := func(writer http.ResponseWriter, request *http.Request) (*session.Store, error) {
		browser, err := registry.Resolve(writer, request)
		if err != nil {
			return nil, err
		}
		return browser.Store, nil
	}

	// # Page Routes
	// Each page runs through the guard before rendering its descriptor.
	for _, page := range pageRoutes {
		handlerFn := pageHandler(page.route.Name)
		if page.route.Name == "practice" {
			handlerFn = requireTikuID(handlerFn)
		}
		r.With(gate.Middleware(stores, page.route)).Get(page.pattern, handlerFn)
	}

	// Anything else is the not-found page.
	r.NotFound(func(writer http.ResponseWriter, request *http.Request) {
		respond.JSON(writer, http.StatusNotFound, map[string]string{
			"page":  "notFound",
			"title": guard.Route{Title: "页面未找到"}.DocumentTitle(),
		})
	})

	// # Application API
	// JSON endpoints consumed by the pages.
	r.Route("/app", func(app chi.Router) {
		app.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", handler.login)
			auth.Post("/register", handler.register)
			auth.Post("/logout", handler.logout)
			auth.Get("/state", handler.state)
		})

		app.Route("/session", func(s chi.Router) {
			s.Post("/extend", handler.extendSession)
			s.Post("/warning-shown", handler.warningShown)
		})

		app.Route("/profile", func(prof chi.Router) {
			prof.Get("/", handler.profileInfo)
			prof.Put("/", handler.profileUpdate)
			prof.Put("/password", handler.profileChangePassword)
		})

		app.Route("/practice", func(practice chi.Router) {
			practice.Get("/subjects", handler.fileOptions)
			practice.Post("/start", handler.startPractice)
			practice.Get("/question", handler.currentQuestion)
			practice.Post("/submit", handler.submitAnswer)
			practice.Get("/jump", handler.jump)
			practice.Get("/completed", handler.completedSummary)
			practice.Get("/status", handler.runStatus)
			practice.Get("/statuses", handler.questionStatuses)
			practice.Get("/questions/{questionID}/analysis", handler.questionAnalysis)
			practice.Get("/history/{index}", handler.questionHistory)
		})

		app.Route("/stats", func(stats chi.Router) {
			stats.Get("/usage", handler.usageStats)
			stats.Get("/usage/summary", handler.usageSummary)
		})

		app.Route("/admin", func(adm chi.Router) {
			adm.Get("/stats", handler.adminStats)
			adm.Get("/users", handler.adminUsers)
			adm.Post("/users/{userID}/toggle", handler.adminToggleUser)
			adm.Put("/users/{userID}/model", handler.adminSetUserModel)
			adm.Get("/invitations", handler.adminInvitations)
			adm.Post("/invitations", handler.adminCreateInvitation)
			adm.Delete("/invitations/{invitationID}", handler.adminDeleteInvitation)
			adm.Get("/subjects", handler.adminSubjects)
			adm.Post("/subjects", handler.adminCreateSubject)
			adm.Put("/subjects/{subjectID}", handler.adminUpdateSubject)
			adm.Delete("/subjects/{subjectID}", handler.adminDeleteSubject)
			adm.Get("/tiku", handler.adminTikuList)
			adm.Post("/tiku/upload", handler.adminUploadTiku)
			adm.Delete("/tiku/{tikuID}", handler.adminDeleteTiku)
			adm.Post("/tiku/{tikuID}/toggle", handler.adminToggleTiku)
			adm.Post("/reload-banks", handler.adminReloadBanks)
			adm.Get("/questions", handler.adminQuestions)
			adm.Get("/questions/stats", handler.adminQuestionStats)
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// pageHandler renders the page descriptor: name plus the document title
// the guard resolved.
func pageHandler(name string) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		respond.OK(writer, map[string]string{
			"page":  name,
			"title": ctxutil.GetPageTitle(request.Context()),
		})
	}
}

// requireTikuID bounces practice navigations lacking a bank selection back
// to the index page.
func requireTikuID(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Query().Get("tikuid") == "" {
			respond.Redirect(writer, request, guard.PathHome)
			return
		}
		next(writer, request)
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
