package handler

import "github.com/MohaDjm/the-tip-top-sub000/internal/service"

// Handler aggregates all HTTP handlers.
type Handler struct {
	Auth          *AuthHandler
	Participation *ParticipationHandler
	Employee      *EmployeeHandler
	Admin         *AdminHandler
}

// NewHandler builds the Handler aggregate.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:          NewAuthHandler(svc.Auth),
		Participation: NewParticipationHandler(svc.Participation),
		Employee:      NewEmployeeHandler(svc.Employee),
		Admin:         NewAdminHandler(svc.Admin, svc.Draw),
	}
}
