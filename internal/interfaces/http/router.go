package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/invosell/factura-api/internal/application/auth"
	"github.com/invosell/factura-api/internal/application/billing"
	"github.com/invosell/factura-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CompanyUC      *usecase.CompanyUseCase
	ClientUC       *billing.ClientUseCase
	CreateDocument *billing.CreateDocumentUseCase
	StatusUC       *billing.StatusUseCase
	PDFUC          *billing.PDFUseCase
	AuthUC         *auth.AuthUseCase
	UserUC         *usecase.UserUseCase
	JWTSecret      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC, deps.UserUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Companies (registro público; el resto requiere Bearer Token)
	companies := api.Group("/companies")
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	companies.Post("/", companyHandler.Create)
	companies.Get("/", AuthMiddleware(deps.JWTSecret), companyHandler.List)
	companies.Get("/:id", AuthMiddleware(deps.JWTSecret), companyHandler.GetByID)
	companies.Put("/:id", AuthMiddleware(deps.JWTSecret), companyHandler.Update)
	companies.Put("/:id/credentials", AuthMiddleware(deps.JWTSecret), companyHandler.UploadCredentials)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Perfil del usuario autenticado
	protected.Get("/me", authHandler.Me)

	// Clients (protegido, receptores de facturación)
	clients := protected.Group("/clients")
	clientHandler := NewClientHandler(deps.ClientUC)
	clients.Post("/", clientHandler.Create)
	clients.Get("/", clientHandler.List)
	clients.Get("/:id", clientHandler.GetByID)
	clients.Put("/:id", clientHandler.Update)
	clients.Delete("/:id", clientHandler.Delete)

	// Documents (protegido, comprobantes electrónicos)
	documents := protected.Group("/documents")
	documentHandler := NewDocumentHandler(deps.CreateDocument, deps.StatusUC, deps.PDFUC)
	documents.Post("/", documentHandler.Create)
	documents.Get("/", documentHandler.List)
	documents.Get("/:id", documentHandler.GetByID)
	documents.Post("/:id/status", documentHandler.CheckStatus)
	documents.Get("/:id/xml", documentHandler.DownloadXML)
	documents.Get("/:id/pdf", documentHandler.DownloadPDF)
}
