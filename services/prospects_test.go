// ABOUTME: Tests for prospect capture and pipeline stats
// ABOUTME: Covers webhook intake, validation and ordering

package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/services"
)

func newProspectService(rec *countingRecorder) *services.ProspectService {
	opts := []services.Option{services.WithClock(newClock().Now)}
	if rec != nil {
		opts = append(opts, services.WithRecorder(rec))
	}
	return services.NewProspectService(newDocs(), opts...)
}

func TestCreateFromWebhook(t *testing.T) {
	rec := &countingRecorder{}
	svc := newProspectService(rec)
	ctx := context.Background()

	p, err := svc.CreateFromWebhook(ctx, services.WebhookLead{
		FirstName: "Ana",
		LastName:  "Lopez",
		Phone:     "555",
		Email:     "a@x.com",
		Service:   "Web",
		Source:    "form",
	})
	require.NoError(t, err)

	assert.Equal(t, "Ana Lopez", p.Nombre)
	assert.Equal(t, "555", p.Telefono)
	assert.Equal(t, "a@x.com", p.Correo)
	assert.Equal(t, "Web", p.Servicio)
	assert.Equal(t, "form", p.Origen)
	assert.Equal(t, models.EstadoNuevo, p.Estado)
	assert.Equal(t, models.PlataformaWhatsApp, p.Plataforma)
	assert.Equal(t, models.ResponsableSistema, p.Responsable)
	assert.NotEmpty(t, p.ID)
	assert.Empty(t, p.Seguimientos)

	stored, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Nombre, stored.Nombre)
	assert.Equal(t, 1, rec.created["webhook"])
}

func TestProspectStatsEmptyHasEveryBucket(t *testing.T) {
	svc := newProspectService(nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Total)
	assert.Len(t, stats.PorEstado, len(models.Estados))
	for _, e := range models.Estados {
		v, ok := stats.PorEstado[e]
		assert.True(t, ok, "missing estado %s", e)
		assert.Equal(t, 0, v)
	}
	for _, p := range models.Plataformas {
		v, ok := stats.PorPlataforma[p]
		assert.True(t, ok, "missing plataforma %s", p)
		assert.Equal(t, 0, v)
	}
}

func TestProspectStatsCounts(t *testing.T) {
	svc := newProspectService(nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.Prospect{Nombre: "A", Plataforma: models.PlataformaInstagram, Responsable: "maria"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, models.Prospect{Nombre: "B", Estado: models.EstadoCotizado, Responsable: "maria"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, models.Prospect{Nombre: "C"})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.PorEstado[models.EstadoNuevo])
	assert.Equal(t, 1, stats.PorEstado[models.EstadoCotizado])
	assert.Equal(t, 0, stats.PorEstado[models.EstadoPerdido])
	assert.Equal(t, 1, stats.PorPlataforma[models.PlataformaInstagram])
	assert.Equal(t, 2, stats.PorPlataforma[models.PlataformaWhatsApp])
	assert.Equal(t, 2, stats.PorResponsable["maria"])
}

func TestProspectCreateValidation(t *testing.T) {
	svc := newProspectService(nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.Prospect{Nombre: "  "})
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "nombre", verr.Field)

	_, err = svc.Create(ctx, models.Prospect{Nombre: "X", Estado: "Maybe"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "estado", verr.Field)

	_, err = svc.Create(ctx, models.Prospect{Nombre: "X", Plataforma: "Fax"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "plataforma", verr.Field)
}

func TestProspectListNewestFirstAndByUser(t *testing.T) {
	svc := newProspectService(nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, models.Prospect{Nombre: "First", Responsable: "luis"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, models.Prospect{Nombre: "Second", Responsable: "ana"})
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)

	mine, err := svc.ByUser(ctx, "luis")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)

	none, err := svc.ByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestProspectUpdateAndDelete(t *testing.T) {
	svc := newProspectService(nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, models.Prospect{Nombre: "Carla", Telefono: "111"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, p.ID, services.ProspectPatch{
		Estado:   ptr(models.EstadoEnSeguimiento),
		Telefono: ptr("222"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.EstadoEnSeguimiento, updated.Estado)
	assert.Equal(t, "222", updated.Telefono)
	assert.Equal(t, "Carla", updated.Nombre)
	assert.True(t, updated.UpdatedAt.After(p.UpdatedAt))

	_, err = svc.Update(ctx, p.ID, services.ProspectPatch{Estado: ptr("Unknown")})
	var verr *services.ValidationError
	assert.ErrorAs(t, err, &verr)

	require.NoError(t, svc.Delete(ctx, p.ID))
	_, err = svc.Get(ctx, p.ID)
	assert.True(t, services.IsNotFound(err))
	assert.True(t, services.IsNotFound(svc.Delete(ctx, p.ID)))
}

func TestProspectFollowUpQuoteAssign(t *testing.T) {
	svc := newProspectService(nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, models.Prospect{Nombre: "Diego"})
	require.NoError(t, err)

	p, err = svc.AddFollowUp(ctx, p.ID, "Called, wants a quote", "maria")
	require.NoError(t, err)
	require.Len(t, p.Seguimientos, 1)
	assert.Equal(t, "maria", p.Seguimientos[0].Autor)
	assert.Equal(t, models.EstadoContactado, p.Estado)
	require.NotNil(t, p.UltimoSeguimiento)
	assert.Equal(t, p.Seguimientos[0].Fecha, *p.UltimoSeguimiento)

	p, err = svc.AddQuote(ctx, p.ID, "Landing page", 1500)
	require.NoError(t, err)
	require.Len(t, p.Cotizaciones, 1)
	assert.Equal(t, 1500.0, p.Cotizaciones[0].Monto)
	assert.Equal(t, models.EstadoCotizado, p.Estado)

	p, err = svc.Assign(ctx, p.ID, "luis")
	require.NoError(t, err)
	assert.Equal(t, "luis", p.Responsable)

	_, err = svc.AddFollowUp(ctx, p.ID, "", "x")
	var verr *services.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.AddQuote(ctx, "missing", "x", 10)
	assert.True(t, services.IsNotFound(err))
}

func TestAddQuoteKeepsClosedEstado(t *testing.T) {
	svc := newProspectService(nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, models.Prospect{Nombre: "Eva", Estado: models.EstadoVentaCerrada})
	require.NoError(t, err)

	p, err = svc.AddQuote(ctx, p.ID, "Upsell", 300)
	require.NoError(t, err)
	assert.Equal(t, models.EstadoVentaCerrada, p.Estado)
}
