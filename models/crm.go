// ABOUTME: Data models for CRM prospects and operator accounts
// ABOUTME: Defines Prospect, User, their nested records, and enum values
package models

import (
	"time"
)

// Prospect estados.
const (
	EstadoNuevo         = "Nuevo"
	EstadoContactado    = "Contactado"
	EstadoEnSeguimiento = "En seguimiento"
	EstadoCotizado      = "Cotizado"
	EstadoVentaCerrada  = "Venta cerrada"
	EstadoPerdido       = "Perdido"
)

// Prospect plataformas.
const (
	PlataformaWhatsApp  = "WhatsApp"
	PlataformaInstagram = "Instagram"
	PlataformaFacebook  = "Facebook"
)

// ResponsableSistema owns prospects created by the inbound webhook.
const ResponsableSistema = "sistema"

// Estados lists every prospect estado in pipeline order.
var Estados = []string{
	EstadoNuevo,
	EstadoContactado,
	EstadoEnSeguimiento,
	EstadoCotizado,
	EstadoVentaCerrada,
	EstadoPerdido,
}

// Plataformas lists every inbound platform.
var Plataformas = []string{
	PlataformaWhatsApp,
	PlataformaInstagram,
	PlataformaFacebook,
}

// ValidEstado reports whether s is a known prospect estado.
func ValidEstado(s string) bool {
	return contains(Estados, s)
}

// ValidPlataforma reports whether s is a known platform.
func ValidPlataforma(s string) bool {
	return contains(Plataformas, s)
}

type Seguimiento struct {
	ID    string    `json:"id"`
	Nota  string    `json:"nota"`
	Autor string    `json:"autor,omitempty"`
	Fecha time.Time `json:"fecha"`
}

type Cotizacion struct {
	ID          string    `json:"id"`
	Descripcion string    `json:"descripcion"`
	Monto       float64   `json:"monto"`
	Fecha       time.Time `json:"fecha"`
	Estado      string    `json:"estado,omitempty"`
}

type Prospect struct {
	ID                string        `json:"id"`
	Nombre            string        `json:"nombre"`
	Telefono          string        `json:"telefono,omitempty"`
	Correo            string        `json:"correo,omitempty"`
	Servicio          string        `json:"servicio,omitempty"`
	Origen            string        `json:"origen,omitempty"`
	Estado            string        `json:"estado"`
	Plataforma        string        `json:"plataforma"`
	Responsable       string        `json:"responsable"`
	FechaContacto     time.Time     `json:"fechaContacto"`
	Seguimientos      []Seguimiento `json:"seguimientos"`
	Cotizaciones      []Cotizacion  `json:"cotizaciones"`
	UltimoSeguimiento *time.Time    `json:"ultimoSeguimiento,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// ProspectStats is the stable-shape aggregate over all prospects.
// PorEstado and PorPlataforma always carry every known key.
type ProspectStats struct {
	Total          int            `json:"total"`
	PorEstado      map[string]int `json:"porEstado"`
	PorPlataforma  map[string]int `json:"porPlataforma"`
	PorResponsable map[string]int `json:"porResponsable"`
}

// User roles.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleAgent   = "agent"
	RoleViewer  = "viewer"
)

// User estados.
const (
	UserActive    = "active"
	UserInactive  = "inactive"
	UserPending   = "pending"
	UserSuspended = "suspended"
)

var Roles = []string{RoleAdmin, RoleManager, RoleAgent, RoleViewer}

var UserEstados = []string{UserActive, UserInactive, UserPending, UserSuspended}

// ValidRole reports whether s is a known role.
func ValidRole(s string) bool {
	return contains(Roles, s)
}

// ValidUserEstado reports whether s is a known account estado.
func ValidUserEstado(s string) bool {
	return contains(UserEstados, s)
}

// Permissions.
const (
	PermProspectsRead  = "prospects:read"
	PermProspectsWrite = "prospects:write"
	PermUsersManage    = "users:manage"
	PermFinanceRead    = "finance:read"
	PermFinanceWrite   = "finance:write"
	PermCalendarRead   = "calendar:read"
	PermCalendarWrite  = "calendar:write"
)

// DefaultPermissions returns the permission set granted to a role on creation.
func DefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{PermProspectsRead, PermProspectsWrite, PermUsersManage, PermFinanceRead, PermFinanceWrite, PermCalendarRead, PermCalendarWrite}
	case RoleManager:
		return []string{PermProspectsRead, PermProspectsWrite, PermFinanceRead, PermFinanceWrite, PermCalendarRead, PermCalendarWrite}
	case RoleAgent:
		return []string{PermProspectsRead, PermProspectsWrite, PermCalendarRead, PermCalendarWrite}
	default:
		return []string{PermProspectsRead, PermCalendarRead}
	}
}

type UserConfig struct {
	Idioma         string `json:"idioma,omitempty"`
	ZonaHoraria    string `json:"zonaHoraria,omitempty"`
	Notificaciones bool   `json:"notificaciones"`
	Tema           string `json:"tema,omitempty"`
}

type UserStats struct {
	ProspectosAsignados int        `json:"prospectosAsignados"`
	VentasCerradas      int        `json:"ventasCerradas"`
	UltimoAcceso        *time.Time `json:"ultimoAcceso,omitempty"`
}

type Activity struct {
	ID      string    `json:"id"`
	Accion  string    `json:"accion"`
	Detalle string    `json:"detalle,omitempty"`
	Fecha   time.Time `json:"fecha"`
}

type User struct {
	ID                 string     `json:"id"`
	Nombre             string     `json:"nombre"`
	Apellido           string     `json:"apellido"`
	Email              string     `json:"email"`
	Rol                string     `json:"rol"`
	Estado             string     `json:"estado"`
	Permisos           []string   `json:"permisos"`
	Configuracion      UserConfig `json:"configuracion"`
	Estadisticas       UserStats  `json:"estadisticas"`
	HistorialActividad []Activity `json:"historialActividad"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// FullName joins nombre and apellido.
func (u *User) FullName() string {
	if u.Apellido == "" {
		return u.Nombre
	}
	return u.Nombre + " " + u.Apellido
}

type UserSummary struct {
	Total     int            `json:"total"`
	PorRol    map[string]int `json:"porRol"`
	PorEstado map[string]int `json:"porEstado"`
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
