package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/contablebot/portal-api/internal/application/dto"
	"github.com/contablebot/portal-api/internal/domain"
	"github.com/contablebot/portal-api/internal/domain/entity"
	"github.com/contablebot/portal-api/internal/domain/repository"
	"github.com/contablebot/portal-api/pkg/rnc"
)

// ClientUseCase aplica las reglas de negocio de clientes de la firma.
type ClientUseCase struct {
	clients  repository.ClientRepository
	invoices repository.InvoiceRepository
	users    repository.UserRepository
	tx       repository.TxRunner
	now      func() time.Time
}

// NewClientUseCase construye el caso de uso.
func NewClientUseCase(
	clients repository.ClientRepository,
	invoices repository.InvoiceRepository,
	users repository.UserRepository,
	tx repository.TxRunner,
) *ClientUseCase {
	return &ClientUseCase{clients: clients, invoices: invoices, users: users, tx: tx, now: time.Now}
}

// List devuelve los clientes visibles para el actor, ordenados por nombre.
func (uc *ClientUseCase) List(ctx context.Context, a Actor) ([]dto.ClientResponse, error) {
	var (
		list []*entity.Client
		err  error
	)
	if a.IsAdmin() {
		list, err = uc.clients.ListByFirm(ctx, a.FirmID)
	} else {
		list, err = uc.clients.ListAssigned(ctx, a.FirmID, a.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("listar clientes: %w", err)
	}
	out := make([]dto.ClientResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toClientResponse(c))
	}
	return out, nil
}

// Create registra un cliente. El RNC se valida y se guarda en forma compacta;
// un RNC repetido dentro de la firma devuelve ErrDuplicate.
func (uc *ClientUseCase) Create(ctx context.Context, a Actor, in dto.ClientRequest) (*dto.ClientResponse, error) {
	name, id, err := normalizeClientInput(in)
	if err != nil {
		return nil, err
	}
	existing, err := uc.clients.GetByRNC(ctx, a.FirmID, id.Compact)
	if err != nil {
		return nil, fmt.Errorf("verificar cliente: %w", err)
	}
	if existing != nil {
		return nil, domain.NewUserError(domain.ErrDuplicate, "Ya existe un cliente con RNC "+id.Formatted)
	}

	c := &entity.Client{FirmID: a.FirmID, Name: name, RNC: id.Compact, CreatedAt: uc.now()}
	err = uc.tx.Run(ctx, func(r repository.Repos) error {
		if err := r.Clients.Create(ctx, c); err != nil {
			return err
		}
		// Un usuario no admin debe poder ver el cliente que acaba de crear.
		if a.IsAdmin() {
			return nil
		}
		if err := r.Users.AssignClient(ctx, a.UserID, c.ID); err != nil {
			return fmt.Errorf("asignar cliente: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.NewUserError(domain.ErrDuplicate, "Ya existe un cliente con RNC "+id.Formatted)
		}
		return nil, fmt.Errorf("crear cliente: %w", err)
	}
	resp := toClientResponse(c)
	return &resp, nil
}

// Update modifica nombre y RNC de un cliente de la firma.
func (uc *ClientUseCase) Update(ctx context.Context, a Actor, id int64, in dto.ClientRequest) (*dto.ClientResponse, error) {
	name, taxID, err := normalizeClientInput(in)
	if err != nil {
		return nil, err
	}
	c, err := uc.accessibleClient(ctx, a, id)
	if err != nil {
		return nil, err
	}
	if c.RNC != taxID.Compact {
		other, err := uc.clients.GetByRNC(ctx, a.FirmID, taxID.Compact)
		if err != nil {
			return nil, fmt.Errorf("verificar cliente: %w", err)
		}
		if other != nil && other.ID != c.ID {
			return nil, domain.NewUserError(domain.ErrDuplicate, "Ya existe otro cliente con RNC "+taxID.Formatted)
		}
	}
	c.Name = name
	c.RNC = taxID.Compact
	if err := uc.clients.Update(ctx, c); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.NewUserError(domain.ErrDuplicate, "Ya existe otro cliente con RNC "+taxID.Formatted)
		}
		return nil, fmt.Errorf("actualizar cliente: %w", err)
	}
	resp := toClientResponse(c)
	return &resp, nil
}

// Delete elimina un cliente. Si tiene facturas y deleteInvoices es false devuelve
// *domain.InvoicesAttachedError; si es true las facturas se eliminan (soft delete)
// en la misma transacción que el cliente.
func (uc *ClientUseCase) Delete(ctx context.Context, a Actor, id int64, deleteInvoices bool) (*dto.DeleteClientResponse, error) {
	c, err := uc.accessibleClient(ctx, a, id)
	if err != nil {
		return nil, err
	}
	count, err := uc.invoices.Count(ctx, repository.InvoiceFilter{FirmID: a.FirmID, ClientID: &c.ID})
	if err != nil {
		return nil, fmt.Errorf("contar facturas: %w", err)
	}
	if count > 0 && !deleteInvoices {
		return nil, &domain.InvoicesAttachedError{Count: count}
	}

	var removed int64
	err = uc.tx.Run(ctx, func(r repository.Repos) error {
		// También desvincula facturas ya eliminadas que aún referencian al cliente.
		n, err := r.Invoices.SoftDeleteByClient(ctx, a.FirmID, c.ID, uc.now())
		if err != nil {
			return fmt.Errorf("eliminar facturas del cliente: %w", err)
		}
		removed = n
		return r.Clients.Delete(ctx, a.FirmID, c.ID)
	})
	if err != nil {
		return nil, err
	}

	msg := "Cliente eliminado correctamente"
	if removed > 0 {
		msg = fmt.Sprintf("Cliente eliminado correctamente junto con %d factura(s)", removed)
	}
	return &dto.DeleteClientResponse{OK: true, Message: msg, InvoicesDeleted: removed}, nil
}

// accessibleClient carga el cliente de la firma y verifica que el actor lo vea.
// Un cliente no asignado se reporta como inexistente.
func (uc *ClientUseCase) accessibleClient(ctx context.Context, a Actor, id int64) (*entity.Client, error) {
	c, err := uc.clients.GetByID(ctx, a.FirmID, id)
	if err != nil {
		return nil, fmt.Errorf("obtener cliente: %w", err)
	}
	if c == nil {
		return nil, domain.NewUserError(domain.ErrNotFound, "Cliente no encontrado")
	}
	ids, restricted, err := clientScope(ctx, uc.users, a)
	if err != nil {
		return nil, err
	}
	if restricted && !containsID(ids, c.ID) {
		return nil, domain.NewUserError(domain.ErrNotFound, "Cliente no encontrado")
	}
	return c, nil
}

func normalizeClientInput(in dto.ClientRequest) (string, rnc.TaxID, error) {
	if strings.TrimSpace(in.RNC) == "" {
		return "", rnc.TaxID{}, domain.NewUserError(domain.ErrInvalidInput, "El RNC es requerido")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", rnc.TaxID{}, domain.NewUserError(domain.ErrInvalidInput, "El nombre del cliente es requerido")
	}
	id := rnc.Validate(in.RNC)
	if !id.Valid {
		return "", id, domain.NewUserError(domain.ErrInvalidInput, id.Error)
	}
	return name, id, nil
}

func toClientResponse(c *entity.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ID:           c.ID,
		FirmID:       c.FirmID,
		Name:         c.Name,
		RNC:          c.RNC,
		RNCFormatted: c.RNCFormatted(),
		CreatedAt:    c.CreatedAt,
	}
}
