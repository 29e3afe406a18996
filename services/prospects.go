// ABOUTME: Prospect pipeline operations: CRUD, inbound webhook leads, follow-ups, quotes
// ABOUTME: Stats always carry every estado and plataforma bucket
package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/store"
)

// ProspectCollection holds one document per prospect.
const ProspectCollection = "prospects"

const entityProspect = "prospect"

// StaleAfter is how long an open prospect can go without a follow-up before it needs attention.
const StaleAfter = 7 * 24 * time.Hour

// WebhookLead is the payload posted by the inbound lead form.
type WebhookLead struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Service   string `json:"service"`
	Source    string `json:"source"`
}

// ProspectPatch carries the fields to change; nil fields are left alone.
type ProspectPatch struct {
	Nombre      *string `json:"nombre,omitempty"`
	Telefono    *string `json:"telefono,omitempty"`
	Correo      *string `json:"correo,omitempty"`
	Servicio    *string `json:"servicio,omitempty"`
	Origen      *string `json:"origen,omitempty"`
	Estado      *string `json:"estado,omitempty"`
	Plataforma  *string `json:"plataforma,omitempty"`
	Responsable *string `json:"responsable,omitempty"`
}

type ProspectService struct {
	base
}

func NewProspectService(docs store.Documents, opts ...Option) *ProspectService {
	return &ProspectService{base: newBase(docs, opts)}
}

// Create stores a new prospect. Estado defaults to Nuevo and plataforma to WhatsApp.
func (s *ProspectService) Create(ctx context.Context, p models.Prospect) (*models.Prospect, error) {
	return s.create(ctx, p, "manual")
}

// CreateFromWebhook turns an inbound lead into a Nuevo WhatsApp prospect owned by the system.
func (s *ProspectService) CreateFromWebhook(ctx context.Context, lead WebhookLead) (*models.Prospect, error) {
	p := models.Prospect{
		Nombre:      strings.TrimSpace(lead.FirstName + " " + lead.LastName),
		Telefono:    lead.Phone,
		Correo:      lead.Email,
		Servicio:    lead.Service,
		Origen:      lead.Source,
		Estado:      models.EstadoNuevo,
		Plataforma:  models.PlataformaWhatsApp,
		Responsable: models.ResponsableSistema,
	}
	return s.create(ctx, p, "webhook")
}

func (s *ProspectService) create(ctx context.Context, p models.Prospect, source string) (*models.Prospect, error) {
	p.Nombre = strings.TrimSpace(p.Nombre)
	if p.Nombre == "" {
		return nil, invalid("nombre", "is required")
	}
	if p.Estado == "" {
		p.Estado = models.EstadoNuevo
	}
	if !models.ValidEstado(p.Estado) {
		return nil, invalid("estado", "unknown value %q", p.Estado)
	}
	if p.Plataforma == "" {
		p.Plataforma = models.PlataformaWhatsApp
	}
	if !models.ValidPlataforma(p.Plataforma) {
		return nil, invalid("plataforma", "unknown value %q", p.Plataforma)
	}

	now := s.now()
	p.ID = newID()
	if p.FechaContacto.IsZero() {
		p.FechaContacto = now
	}
	if p.Seguimientos == nil {
		p.Seguimientos = []models.Seguimiento{}
	}
	if p.Cotizaciones == nil {
		p.Cotizaciones = []models.Cotizacion{}
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := store.PutJSON(ctx, s.docs, ProspectCollection, p.ID, p); err != nil {
		return nil, err
	}
	s.recorder.RecordProspectCreated(source)
	return &p, nil
}

// List returns every prospect, newest first.
func (s *ProspectService) List(ctx context.Context) ([]models.Prospect, error) {
	prospects, err := store.ListJSON[models.Prospect](ctx, s.docs, ProspectCollection)
	if err != nil {
		return nil, err
	}
	sort.Slice(prospects, func(i, j int) bool {
		if prospects[i].CreatedAt.Equal(prospects[j].CreatedAt) {
			return prospects[i].ID < prospects[j].ID
		}
		return prospects[i].CreatedAt.After(prospects[j].CreatedAt)
	})
	return prospects, nil
}

func (s *ProspectService) Get(ctx context.Context, id string) (*models.Prospect, error) {
	var p models.Prospect
	if err := s.getDoc(ctx, ProspectCollection, entityProspect, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update applies patch to the prospect.
func (s *ProspectService) Update(ctx context.Context, id string, patch ProspectPatch) (*models.Prospect, error) {
	return s.mutate(ctx, id, func(p *models.Prospect) error {
		if patch.Nombre != nil {
			nombre := strings.TrimSpace(*patch.Nombre)
			if nombre == "" {
				return invalid("nombre", "is required")
			}
			p.Nombre = nombre
		}
		if patch.Estado != nil {
			if !models.ValidEstado(*patch.Estado) {
				return invalid("estado", "unknown value %q", *patch.Estado)
			}
			p.Estado = *patch.Estado
		}
		if patch.Plataforma != nil {
			if !models.ValidPlataforma(*patch.Plataforma) {
				return invalid("plataforma", "unknown value %q", *patch.Plataforma)
			}
			p.Plataforma = *patch.Plataforma
		}
		setIfPresent(&p.Telefono, patch.Telefono)
		setIfPresent(&p.Correo, patch.Correo)
		setIfPresent(&p.Servicio, patch.Servicio)
		setIfPresent(&p.Origen, patch.Origen)
		setIfPresent(&p.Responsable, patch.Responsable)
		return nil
	})
}

func (s *ProspectService) Delete(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, ProspectCollection, entityProspect, id)
}

// ByUser returns the prospects assigned to responsable.
func (s *ProspectService) ByUser(ctx context.Context, responsable string) ([]models.Prospect, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Prospect{}
	for _, p := range all {
		if p.Responsable == responsable {
			out = append(out, p)
		}
	}
	return out, nil
}

// Stats counts prospects per estado, plataforma, and responsable.
func (s *ProspectService) Stats(ctx context.Context) (*models.ProspectStats, error) {
	all, err := store.ListJSON[models.Prospect](ctx, s.docs, ProspectCollection)
	if err != nil {
		return nil, err
	}
	return ComputeProspectStats(all), nil
}

// ComputeProspectStats aggregates prospects; every known bucket starts at zero.
func ComputeProspectStats(prospects []models.Prospect) *models.ProspectStats {
	stats := &models.ProspectStats{
		PorEstado:      make(map[string]int, len(models.Estados)),
		PorPlataforma:  make(map[string]int, len(models.Plataformas)),
		PorResponsable: map[string]int{},
	}
	for _, e := range models.Estados {
		stats.PorEstado[e] = 0
	}
	for _, p := range models.Plataformas {
		stats.PorPlataforma[p] = 0
	}

	for _, p := range prospects {
		stats.Total++
		stats.PorEstado[p.Estado]++
		stats.PorPlataforma[p.Plataforma]++
		if p.Responsable != "" {
			stats.PorResponsable[p.Responsable]++
		}
	}
	return stats
}

// Stale returns open prospects untouched for longer than olderThan, oldest first.
func (s *ProspectService) Stale(ctx context.Context, olderThan time.Duration) ([]models.Prospect, error) {
	all, err := store.ListJSON[models.Prospect](ctx, s.docs, ProspectCollection)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := []models.Prospect{}
	for _, p := range all {
		if p.Estado == models.EstadoVentaCerrada || p.Estado == models.EstadoPerdido {
			continue
		}
		if now.Sub(LastTouch(p)) > olderThan {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return LastTouch(out[i]).Before(LastTouch(out[j]))
	})
	return out, nil
}

// LastTouch is the latest follow-up, or first contact when there is none.
func LastTouch(p models.Prospect) time.Time {
	if p.UltimoSeguimiento != nil {
		return *p.UltimoSeguimiento
	}
	return p.FechaContacto
}

// AddFollowUp records a note. A Nuevo prospect moves to Contactado.
func (s *ProspectService) AddFollowUp(ctx context.Context, id, nota, autor string) (*models.Prospect, error) {
	nota = strings.TrimSpace(nota)
	if nota == "" {
		return nil, invalid("nota", "is required")
	}
	return s.mutate(ctx, id, func(p *models.Prospect) error {
		now := s.now()
		p.Seguimientos = append(p.Seguimientos, models.Seguimiento{
			ID:    newSortableID(),
			Nota:  nota,
			Autor: autor,
			Fecha: now,
		})
		p.UltimoSeguimiento = &now
		if p.Estado == models.EstadoNuevo {
			p.Estado = models.EstadoContactado
		}
		return nil
	})
}

// Assign hands the prospect to responsable.
func (s *ProspectService) Assign(ctx context.Context, id, responsable string) (*models.Prospect, error) {
	responsable = strings.TrimSpace(responsable)
	if responsable == "" {
		return nil, invalid("responsable", "is required")
	}
	return s.mutate(ctx, id, func(p *models.Prospect) error {
		p.Responsable = responsable
		return nil
	})
}

// AddQuote attaches a quote. Prospects still early in the pipeline move to Cotizado.
func (s *ProspectService) AddQuote(ctx context.Context, id, descripcion string, monto float64) (*models.Prospect, error) {
	if monto <= 0 {
		return nil, invalid("monto", "must be positive")
	}
	return s.mutate(ctx, id, func(p *models.Prospect) error {
		p.Cotizaciones = append(p.Cotizaciones, models.Cotizacion{
			ID:          newSortableID(),
			Descripcion: descripcion,
			Monto:       monto,
			Fecha:       s.now(),
			Estado:      "pendiente",
		})
		switch p.Estado {
		case models.EstadoNuevo, models.EstadoContactado, models.EstadoEnSeguimiento:
			p.Estado = models.EstadoCotizado
		}
		return nil
	})
}

// mutate loads, changes, and writes back one prospect.
func (s *ProspectService) mutate(ctx context.Context, id string, fn func(*models.Prospect) error) (*models.Prospect, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now()
	if err := store.PutJSON(ctx, s.docs, ProspectCollection, p.ID, p); err != nil {
		return nil, err
	}
	return p, nil
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
