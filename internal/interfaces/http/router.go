package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/contablebot/portal-api/internal/application/usecase"
	"github.com/contablebot/portal-api/internal/domain/entity"
	"github.com/contablebot/portal-api/internal/domain/plan"
	"github.com/contablebot/portal-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ClientUC  *usecase.ClientUseCase
	InvoiceUC *usecase.InvoiceUseCase
	UserUC    *usecase.UserUseCase
	ReportUC  *usecase.ReportUseCase
	Plans     *usecase.PlanService
	JWTSecret string
	Logger    *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api")

	// RNC (público, ayuda de formularios)
	api.Post("/rnc/validate", ValidateRNC)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	adminOnly := RequireRole(entity.RoleAdmin)

	// Perfil
	userHandler := NewUserHandler(deps.UserUC, log)
	protected.Get("/me", userHandler.Me)
	protected.Patch("/me/active-client", userHandler.SwitchClient)
	protected.Post("/me/password", userHandler.ChangePassword)

	// Clientes
	clients := protected.Group("/clients")
	clientHandler := NewClientHandler(deps.ClientUC, log)
	clients.Get("/", clientHandler.List)
	clients.Post("/", clientHandler.Create)
	clients.Patch("/:id", clientHandler.Update)
	clients.Delete("/:id", clientHandler.Delete)

	// Facturas: rutas estáticas antes de /:id
	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC, log)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/pending", invoiceHandler.Pending)
	invoices.Get("/qa", adminOnly, invoiceHandler.QA)
	invoices.Post("/upload", invoiceHandler.Upload)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Patch("/:id", invoiceHandler.Update)
	invoices.Delete("/:id", invoiceHandler.Delete)

	// Reportes: las exportaciones 606 requieren plan Business+
	reports := protected.Group("/reports")
	reportHandler := NewReportHandler(deps.ReportUC, log)
	exportPlan := RequirePlan(plan.Business, deps.Plans, log)
	reports.Get("/stats", reportHandler.Stats)
	reports.Get("/606.csv", exportPlan, reportHandler.Export606CSV)
	reports.Get("/606.pdf", exportPlan, reportHandler.Export606PDF)

	// Usuarios (admin); crear usuarios requiere plan Pro+
	users := protected.Group("/users", adminOnly)
	users.Get("/", userHandler.List)
	users.Post("/", RequirePlan(plan.Pro, deps.Plans, log), userHandler.Create)
	users.Delete("/:id", userHandler.Delete)
	users.Put("/:id/clients", userHandler.AssignClients)
}
