package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contablebot/portal-api/internal/application/dto"
	"github.com/contablebot/portal-api/internal/application/ports"
	"github.com/contablebot/portal-api/internal/domain"
	"github.com/contablebot/portal-api/internal/domain/entity"
	"github.com/contablebot/portal-api/internal/domain/quality"
	"github.com/contablebot/portal-api/internal/domain/repository"
	"github.com/contablebot/portal-api/pkg/logger"
	"github.com/contablebot/portal-api/pkg/rnc"
)

const (
	defaultInvoiceLimit = 100
	dateLayout          = "2006-01-02"
)

// Tipos MIME aceptados en la carga y su extensión de objeto.
var uploadMimeTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadLimits límites de POST /api/invoices/upload.
type UploadLimits struct {
	MaxFiles     int
	MaxFileBytes int64
}

// InvoiceUseCase aplica las reglas de negocio de facturas.
type InvoiceUseCase struct {
	invoices repository.InvoiceRepository
	clients  repository.ClientRepository
	users    repository.UserRepository
	firms    repository.FirmRepository
	plans    *PlanService
	storage  ports.ObjectStorage // nil si la carga está deshabilitada
	limits   UploadLimits
	log      *logger.Logger
	now      func() time.Time
	newKey   func() string
}

// NewInvoiceUseCase construye el caso de uso.
func NewInvoiceUseCase(
	invoices repository.InvoiceRepository,
	clients repository.ClientRepository,
	users repository.UserRepository,
	firms repository.FirmRepository,
	plans *PlanService,
	storage ports.ObjectStorage,
	limits UploadLimits,
	log *logger.Logger,
) *InvoiceUseCase {
	if limits.MaxFiles <= 0 {
		limits.MaxFiles = 10
	}
	if limits.MaxFileBytes <= 0 {
		limits.MaxFileBytes = 10 << 20
	}
	if log == nil {
		log = logger.Nop()
	}
	return &InvoiceUseCase{
		invoices: invoices,
		clients:  clients,
		users:    users,
		firms:    firms,
		plans:    plans,
		storage:  storage,
		limits:   limits,
		log:      log.Component("invoices"),
		now:      time.Now,
		newKey:   func() string { return uuid.NewString() },
	}
}

// List devuelve las facturas de la firma visibles para el actor, por fecha descendente.
func (uc *InvoiceUseCase) List(ctx context.Context, a Actor, q dto.InvoiceQuery) ([]dto.InvoiceResponse, error) {
	f, empty, err := buildInvoiceFilter(ctx, uc.users, a, q)
	if err != nil {
		return nil, err
	}
	if empty {
		return []dto.InvoiceResponse{}, nil
	}
	if f.Limit == 0 {
		f.Limit = defaultInvoiceLimit
	}
	list, err := uc.invoices.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listar facturas: %w", err)
	}
	out := make([]dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		out = append(out, toInvoiceResponse(inv))
	}
	return out, nil
}

// Get devuelve una factura de la firma.
func (uc *InvoiceUseCase) Get(ctx context.Context, a Actor, id int64) (*dto.InvoiceResponse, error) {
	inv, err := uc.accessibleInvoice(ctx, a, id)
	if err != nil {
		return nil, err
	}
	resp := toInvoiceResponse(inv)
	return &resp, nil
}

// Update aplica una corrección manual. Solo se tocan los campos presentes en patch.
func (uc *InvoiceUseCase) Update(ctx context.Context, a Actor, id int64, patch dto.InvoicePatch) (*dto.InvoiceResponse, error) {
	inv, err := uc.accessibleInvoice(ctx, a, id)
	if err != nil {
		return nil, err
	}
	if err := applyInvoicePatch(inv, patch); err != nil {
		return nil, err
	}
	if err := uc.invoices.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("actualizar factura: %w", err)
	}
	resp := toInvoiceResponse(inv)
	return &resp, nil
}

// Delete marca la factura como eliminada.
func (uc *InvoiceUseCase) Delete(ctx context.Context, a Actor, id int64) error {
	inv, err := uc.accessibleInvoice(ctx, a, id)
	if err != nil {
		return err
	}
	if err := uc.invoices.SoftDelete(ctx, a.FirmID, inv.ID, uc.now()); err != nil {
		return fmt.Errorf("eliminar factura: %w", err)
	}
	return nil
}

// PendingCount cuenta las facturas aún en extracción (pending o processing).
func (uc *InvoiceUseCase) PendingCount(ctx context.Context, a Actor) (int, error) {
	ids, restricted, err := clientScope(ctx, uc.users, a)
	if err != nil {
		return 0, err
	}
	if restricted && len(ids) == 0 {
		return 0, nil
	}
	f := repository.InvoiceFilter{
		FirmID:   a.FirmID,
		Statuses: []string{entity.InvoiceStatusPending, entity.InvoiceStatusProcessing},
	}
	if restricted {
		f.ClientIDs = ids
	}
	n, err := uc.invoices.Count(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("contar pendientes: %w", err)
	}
	return n, nil
}

// QA evalúa la calidad de las facturas ya procesadas de la firma.
func (uc *InvoiceUseCase) QA(ctx context.Context, a Actor, q dto.QAQuery) (*dto.QAResponse, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultInvoiceLimit
	}
	list, err := uc.invoices.List(ctx, repository.InvoiceFilter{
		FirmID:      a.FirmID,
		Statuses:    []string{entity.InvoiceStatusOK, entity.InvoiceStatusReview, entity.InvoiceStatusError},
		FlaggedOnly: q.Filter == "flagged",
		Limit:       limit,
	})
	if err != nil {
		return nil, fmt.Errorf("listar facturas QA: %w", err)
	}
	results, stats := quality.EvaluateAll(list)
	out := &dto.QAResponse{Invoices: make([]dto.QAInvoice, 0, len(list)), Stats: stats}
	for _, inv := range list {
		out.Invoices = append(out.Invoices, dto.QAInvoice{Invoice: toInvoiceResponse(inv), Quality: results[inv.ID]})
	}
	return out, nil
}

// Upload guarda las imágenes en el almacenamiento de objetos y crea una factura
// pending por archivo para el cliente activo del usuario. Los errores por archivo
// no abortan la carga; se devuelven en el resultado.
func (uc *InvoiceUseCase) Upload(ctx context.Context, a Actor, files []dto.UploadFile) (*dto.UploadResponse, error) {
	if len(files) == 0 {
		return nil, domain.NewUserError(domain.ErrInvalidInput, "No se recibieron archivos")
	}
	if len(files) > uc.limits.MaxFiles {
		return nil, domain.NewUserError(domain.ErrInvalidInput, fmt.Sprintf("Máximo %d archivos por carga", uc.limits.MaxFiles))
	}
	if uc.storage == nil {
		return nil, domain.NewUserError(domain.ErrConflict, "La carga de facturas no está habilitada en este servidor")
	}

	client, err := uc.activeClient(ctx, a)
	if err != nil {
		return nil, err
	}
	if err := uc.checkQuota(ctx, a.FirmID, len(files)); err != nil {
		return nil, err
	}

	resp := &dto.UploadResponse{Invoices: make([]dto.UploadResult, 0, len(files))}
	for _, f := range files {
		r := uc.uploadOne(ctx, a, client, f)
		if !r.Success {
			resp.TotalFailed++
		}
		resp.Invoices = append(resp.Invoices, r)
	}
	resp.TotalUploaded = len(files) - resp.TotalFailed

	if resp.TotalUploaded > 0 {
		if err := uc.firms.IncrementUsage(ctx, a.FirmID, resp.TotalUploaded); err != nil {
			uc.log.Error().Err(err).Int64("firm_id", a.FirmID).Int("count", resp.TotalUploaded).Msg("no se pudo actualizar el uso mensual")
		}
	}
	return resp, nil
}

func (uc *InvoiceUseCase) uploadOne(ctx context.Context, a Actor, client *entity.Client, f dto.UploadFile) dto.UploadResult {
	name := f.Filename
	if name == "" {
		name = "unknown"
	}
	fail := func(msg string) dto.UploadResult {
		return dto.UploadResult{Filename: name, Error: msg}
	}

	mime := strings.ToLower(strings.TrimSpace(strings.SplitN(f.ContentType, ";", 2)[0]))
	ext, ok := uploadMimeTypes[mime]
	if !ok {
		return fail("Tipo de archivo inválido. Solo se aceptan imágenes (JPG, PNG, WEBP, GIF)")
	}
	if f.Size > uc.limits.MaxFileBytes {
		return fail(fmt.Sprintf("Archivo muy grande. El tamaño máximo es %dMB", uc.limits.MaxFileBytes>>20))
	}
	key := fmt.Sprintf("firms/%d/invoices/%s%s", a.FirmID, uc.newKey(), ext)
	if err := uc.storage.Put(ctx, key, mime, f.Content, f.Size); err != nil {
		uc.log.Error().Err(err).Str("key", key).Msg("error subiendo imagen de factura")
		return fail("Error al guardar la imagen")
	}

	now := uc.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	userID, clientID := a.UserID, client.ID
	inv := &entity.Invoice{
		FirmID:         a.FirmID,
		UserID:         &userID,
		ClientID:       &clientID,
		ClientName:     client.Name,
		Fecha:          &today,
		RNC:            client.RNC,
		TotalFacturado: decimal.Zero,
		StorageKey:     key,
		Status:         entity.InvoiceStatusPending,
		CreatedAt:      now,
	}
	if err := uc.invoices.Create(ctx, inv); err != nil {
		uc.log.Error().Err(err).Str("key", key).Msg("error creando factura")
		return fail("Error al crear el registro de factura")
	}
	return dto.UploadResult{ID: inv.ID, Filename: name, Success: true}
}

func (uc *InvoiceUseCase) activeClient(ctx context.Context, a Actor) (*entity.Client, error) {
	u, err := uc.users.GetByID(ctx, a.UserID)
	if err != nil {
		return nil, fmt.Errorf("obtener usuario: %w", err)
	}
	if u == nil || u.ActiveClientRNC == "" {
		return nil, domain.NewUserError(domain.ErrNoActiveClient, "Debes seleccionar un cliente activo antes de subir facturas")
	}
	c, err := uc.clients.GetByRNC(ctx, a.FirmID, u.ActiveClientRNC)
	if err != nil {
		return nil, fmt.Errorf("obtener cliente activo: %w", err)
	}
	if c == nil {
		return nil, domain.NewUserError(domain.ErrNoActiveClient, "Cliente activo no encontrado. Por favor selecciona un cliente válido.")
	}
	return c, nil
}

// checkQuota aplica la cuota mensual del plan; sin plan reconocido se usa el
// límite guardado en la firma. Un límite 0 no restringe.
func (uc *InvoiceUseCase) checkQuota(ctx context.Context, firmID int64, incoming int) error {
	firm, err := uc.firms.GetByID(ctx, firmID)
	if err != nil {
		return fmt.Errorf("obtener firma: %w", err)
	}
	if firm == nil {
		return domain.ErrNotFound
	}
	limit := firm.PlanLimit
	if uc.plans != nil {
		p, ok, err := uc.plans.CurrentPlan(ctx, firmID)
		if err != nil {
			return err
		}
		if ok {
			if p.AllowsInvoices(firm.UsageCurrentMonth, incoming) {
				return nil
			}
			limit = p.MonthlyInvoices
		}
	}
	if limit > 0 && firm.UsageCurrentMonth+incoming > limit {
		return domain.NewUserError(domain.ErrQuotaExceeded,
			fmt.Sprintf("Has alcanzado el límite de %d facturas de tu plan este mes (usadas: %d)", limit, firm.UsageCurrentMonth))
	}
	return nil
}

func (uc *InvoiceUseCase) accessibleInvoice(ctx context.Context, a Actor, id int64) (*entity.Invoice, error) {
	inv, err := uc.invoices.GetByID(ctx, a.FirmID, id)
	if err != nil {
		return nil, fmt.Errorf("obtener factura: %w", err)
	}
	if inv == nil {
		return nil, domain.NewUserError(domain.ErrNotFound, "Factura no encontrada")
	}
	ids, restricted, err := clientScope(ctx, uc.users, a)
	if err != nil {
		return nil, err
	}
	if restricted && (inv.ClientID == nil || !containsID(ids, *inv.ClientID)) {
		return nil, domain.NewUserError(domain.ErrNotFound, "Factura no encontrada")
	}
	return inv, nil
}

// buildInvoiceFilter traduce la consulta HTTP al filtro del repositorio aplicando
// el alcance del actor. empty=true si el actor no puede ver ninguna factura.
func buildInvoiceFilter(ctx context.Context, users repository.UserRepository, a Actor, q dto.InvoiceQuery) (repository.InvoiceFilter, bool, error) {
	f := repository.InvoiceFilter{FirmID: a.FirmID, ClientName: strings.TrimSpace(q.Client), Limit: q.Limit}
	var err error
	if f.From, err = parseDate(q.From); err != nil {
		return f, false, err
	}
	if f.To, err = parseDate(q.To); err != nil {
		return f, false, err
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, false, domain.NewUserError(domain.ErrInvalidInput, "La fecha final no puede ser anterior a la inicial")
	}
	if q.Status != "" {
		for _, s := range strings.Split(q.Status, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.Statuses = append(f.Statuses, s)
			}
		}
	}
	if q.ClientID > 0 {
		id := q.ClientID
		f.ClientID = &id
	}

	ids, restricted, err := clientScope(ctx, users, a)
	if err != nil {
		return f, false, err
	}
	if restricted {
		if len(ids) == 0 || (f.ClientID != nil && !containsID(ids, *f.ClientID)) {
			return f, true, nil
		}
		f.ClientIDs = ids
	}
	return f, false, nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, domain.NewUserError(domain.ErrInvalidInput, fmt.Sprintf("Fecha inválida %q, use el formato AAAA-MM-DD", s))
	}
	return &t, nil
}

func applyInvoicePatch(inv *entity.Invoice, p dto.InvoicePatch) error {
	if p.Fecha != nil {
		t, err := parseDate(*p.Fecha)
		if err != nil {
			return err
		}
		inv.Fecha = t
	}
	if p.RNC != nil {
		if strings.TrimSpace(*p.RNC) == "" {
			inv.RNC = ""
		} else {
			id := rnc.Validate(*p.RNC)
			if !id.Valid {
				return domain.NewUserError(domain.ErrInvalidInput, id.Error)
			}
			inv.RNC = id.Compact
		}
	}
	if p.NCF != nil {
		inv.NCF = strings.ToUpper(strings.TrimSpace(*p.NCF))
	}
	if p.NombreCompania != nil {
		inv.NombreCompania = strings.TrimSpace(*p.NombreCompania)
	}
	if p.Materiales != nil {
		inv.Materiales = strings.TrimSpace(*p.Materiales)
	}
	if p.Status != nil {
		switch *p.Status {
		case entity.InvoiceStatusOK, entity.InvoiceStatusReview, entity.InvoiceStatusError:
			inv.Status = *p.Status
		default:
			return domain.NewUserError(domain.ErrInvalidInput, "Estado inválido")
		}
	}
	if p.TotalFacturado != nil {
		inv.TotalFacturado = *p.TotalFacturado
	}

	setNull := func(dst *decimal.NullDecimal, v *decimal.Decimal) {
		if v != nil {
			*dst = decimal.NewNullDecimal(*v)
		}
	}
	setNull(&inv.MontoServicioExento, p.MontoServicioExento)
	setNull(&inv.MontoBienExento, p.MontoBienExento)
	setNull(&inv.TotalMontosExento, p.TotalMontosExento)
	setNull(&inv.MontoServicioGravado, p.MontoServicioGravado)
	setNull(&inv.MontoBienGravado, p.MontoBienGravado)
	setNull(&inv.TotalMontosGravado, p.TotalMontosGravado)
	setNull(&inv.ITBISServicios, p.ITBISServicios)
	setNull(&inv.ITBISBienes, p.ITBISBienes)
	setNull(&inv.TotalFacturadoITBIS, p.TotalFacturadoITBIS)
	setNull(&inv.ITBISServiciosRetenido, p.ITBISServiciosRetenido)
	setNull(&inv.Retencion30ITBIS, p.Retencion30ITBIS)
	setNull(&inv.Retencion10, p.Retencion10)
	setNull(&inv.Retencion2, p.Retencion2)
	setNull(&inv.Propina, p.Propina)
	setNull(&inv.TotalACobrar, p.TotalACobrar)
	return nil
}

func toInvoiceResponse(inv *entity.Invoice) dto.InvoiceResponse {
	r := dto.InvoiceResponse{
		ID:             inv.ID,
		FirmID:         inv.FirmID,
		UserID:         inv.UserID,
		ClientID:       inv.ClientID,
		ClientName:     inv.ClientName,
		RNC:            inv.RNC,
		RNCFormatted:   rnc.FormatCompact(inv.RNC),
		NCF:            inv.NCF,
		NombreCompania: inv.NombreCompania,
		Materiales:     inv.Materiales,

		MontoServicioExento:    nullPtr(inv.MontoServicioExento),
		MontoBienExento:        nullPtr(inv.MontoBienExento),
		TotalMontosExento:      nullPtr(inv.TotalMontosExento),
		MontoServicioGravado:   nullPtr(inv.MontoServicioGravado),
		MontoBienGravado:       nullPtr(inv.MontoBienGravado),
		TotalMontosGravado:     nullPtr(inv.TotalMontosGravado),
		ITBISServicios:         nullPtr(inv.ITBISServicios),
		ITBISBienes:            nullPtr(inv.ITBISBienes),
		TotalFacturadoITBIS:    nullPtr(inv.TotalFacturadoITBIS),
		ITBISServiciosRetenido: nullPtr(inv.ITBISServiciosRetenido),
		Retencion30ITBIS:       nullPtr(inv.Retencion30ITBIS),
		Retencion10:            nullPtr(inv.Retencion10),
		Retencion2:             nullPtr(inv.Retencion2),
		Propina:                nullPtr(inv.Propina),
		TotalFacturado:         inv.TotalFacturado,
		TotalACobrar:           nullPtr(inv.TotalACobrar),

		FlagDudoso: inv.FlagDudoso,
		RazonDuda:  inv.RazonDuda,
		Status:     inv.Status,
		CreatedAt:  inv.CreatedAt,
	}
	if inv.Fecha != nil {
		s := inv.Fecha.Format(dateLayout)
		r.Fecha = &s
	}
	return r
}

func nullPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
