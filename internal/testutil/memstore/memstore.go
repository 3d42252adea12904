// Package memstore implementa en memoria los puertos de persistencia del dominio.
// Se usa en tests de casos de uso y handlers; no está pensado para producción.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/contablebot/portal-api/internal/domain"
	"github.com/contablebot/portal-api/internal/domain/entity"
	"github.com/contablebot/portal-api/internal/domain/repository"
)

// Store datos compartidos por todos los repositorios en memoria.
type Store struct {
	mu          sync.Mutex
	nextID      int64
	firms       map[int64]entity.Firm
	clients     map[int64]entity.Client
	users       map[int64]entity.User
	invoices    map[int64]entity.Invoice
	assignments map[int64][]int64 // user_id -> client_ids
}

// New crea un Store vacío.
func New() *Store {
	return &Store{
		firms:       map[int64]entity.Firm{},
		clients:     map[int64]entity.Client{},
		users:       map[int64]entity.User{},
		invoices:    map[int64]entity.Invoice{},
		assignments: map[int64][]int64{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Firms devuelve el repositorio de firmas.
func (s *Store) Firms() repository.FirmRepository { return firmRepo{s} }

// Clients devuelve el repositorio de clientes.
func (s *Store) Clients() repository.ClientRepository { return clientRepo{s} }

// Users devuelve el repositorio de usuarios.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Invoices devuelve el repositorio de facturas.
func (s *Store) Invoices() repository.InvoiceRepository { return invoiceRepo{s} }

// Tx devuelve un TxRunner que restaura el estado previo si fn falla.
func (s *Store) Tx() repository.TxRunner { return txRunner{s} }

// AddFirm inserta una firma y le asigna ID si no trae uno.
func (s *Store) AddFirm(f *entity.Firm) *entity.Firm {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID == 0 {
		f.ID = s.id()
	}
	s.firms[f.ID] = *f
	return f
}

// AddClient inserta un cliente.
func (s *Store) AddClient(c *entity.Client) *entity.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.clients[c.ID] = *c
	return c
}

// AddUser inserta un usuario con sus clientes asignados.
func (s *Store) AddUser(u *entity.User, clientIDs ...int64) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.id()
	s.users[u.ID] = *u
	if len(clientIDs) > 0 {
		s.assignments[u.ID] = append([]int64(nil), clientIDs...)
	}
	return u
}

// AddInvoice inserta una factura.
func (s *Store) AddInvoice(inv *entity.Invoice) *entity.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv.ID = s.id()
	s.invoices[inv.ID] = *inv
	return inv
}

// Invoice devuelve una copia de la factura aunque esté eliminada.
func (s *Store) Invoice(id int64) (entity.Invoice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	return inv, ok
}

// Firm devuelve una copia de la firma.
func (s *Store) Firm(id int64) (entity.Firm, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.firms[id]
	return f, ok
}

type snapshot struct {
	nextID      int64
	firms       map[int64]entity.Firm
	clients     map[int64]entity.Client
	users       map[int64]entity.User
	invoices    map[int64]entity.Invoice
	assignments map[int64][]int64
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		nextID:      s.nextID,
		firms:       make(map[int64]entity.Firm, len(s.firms)),
		clients:     make(map[int64]entity.Client, len(s.clients)),
		users:       make(map[int64]entity.User, len(s.users)),
		invoices:    make(map[int64]entity.Invoice, len(s.invoices)),
		assignments: make(map[int64][]int64, len(s.assignments)),
	}
	for k, v := range s.firms {
		snap.firms[k] = v
	}
	for k, v := range s.clients {
		snap.clients[k] = v
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.invoices {
		snap.invoices[k] = v
	}
	for k, v := range s.assignments {
		snap.assignments[k] = append([]int64(nil), v...)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.firms = snap.firms
	s.clients = snap.clients
	s.users = snap.users
	s.invoices = snap.invoices
	s.assignments = snap.assignments
}

type txRunner struct{ s *Store }

func (t txRunner) Run(ctx context.Context, fn func(repository.Repos) error) error {
	snap := t.s.snapshot()
	err := fn(repository.Repos{Clients: t.s.Clients(), Invoices: t.s.Invoices(), Users: t.s.Users()})
	if err != nil {
		t.s.restore(snap)
	}
	return err
}

// ── firmas ──

type firmRepo struct{ s *Store }

func (r firmRepo) GetByID(_ context.Context, id int64) (*entity.Firm, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.firms[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (r firmRepo) IncrementUsage(_ context.Context, id int64, n int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.firms[id]
	if !ok {
		return domain.ErrNotFound
	}
	f.UsageCurrentMonth += n
	r.s.firms[id] = f
	return nil
}

// ── clientes ──

type clientRepo struct{ s *Store }

func (r clientRepo) Create(_ context.Context, c *entity.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.clients {
		if o.FirmID == c.FirmID && o.RNC == c.RNC {
			return domain.ErrDuplicate
		}
	}
	c.ID = r.s.id()
	r.s.clients[c.ID] = *c
	return nil
}

func (r clientRepo) GetByID(_ context.Context, firmID, id int64) (*entity.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok || c.FirmID != firmID {
		return nil, nil
	}
	return &c, nil
}

func (r clientRepo) GetByRNC(_ context.Context, firmID int64, rnc string) (*entity.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.clients {
		if c.FirmID == firmID && c.RNC == rnc {
			return &c, nil
		}
	}
	return nil, nil
}

func (r clientRepo) ListByFirm(_ context.Context, firmID int64) ([]*entity.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.clientsWhere(func(c entity.Client) bool { return c.FirmID == firmID }), nil
}

func (r clientRepo) ListAssigned(_ context.Context, firmID, userID int64) ([]*entity.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := r.s.assignments[userID]
	return r.s.clientsWhere(func(c entity.Client) bool {
		if c.FirmID != firmID {
			return false
		}
		for _, id := range ids {
			if id == c.ID {
				return true
			}
		}
		return false
	}), nil
}

func (s *Store) clientsWhere(keep func(entity.Client) bool) []*entity.Client {
	out := []*entity.Client{}
	for _, c := range s.clients {
		if keep(c) {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r clientRepo) Update(_ context.Context, c *entity.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.clients[c.ID]
	if !ok || cur.FirmID != c.FirmID {
		return domain.ErrNotFound
	}
	for _, o := range r.s.clients {
		if o.ID != c.ID && o.FirmID == c.FirmID && o.RNC == c.RNC {
			return domain.ErrDuplicate
		}
	}
	r.s.clients[c.ID] = *c
	return nil
}

func (r clientRepo) Delete(_ context.Context, firmID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok || c.FirmID != firmID {
		return domain.ErrNotFound
	}
	for _, inv := range r.s.invoices {
		if inv.ClientID != nil && *inv.ClientID == id {
			return domain.ErrConflict // FK invoices.client_id
		}
	}
	delete(r.s.clients, id)
	for uid, ids := range r.s.assignments {
		r.s.assignments[uid] = without(ids, id)
	}
	return nil
}

func without(ids []int64, id int64) []int64 {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// ── usuarios ──

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.users {
		if strings.EqualFold(o.Email, u.Email) {
			return domain.ErrDuplicate
		}
	}
	u.ID = r.s.id()
	r.s.users[u.ID] = *u
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r userRepo) ListByFirm(_ context.Context, firmID int64) ([]*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.User{}
	for _, u := range r.s.users {
		if u.FirmID == firmID {
			u := u
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r userRepo) CountByFirm(ctx context.Context, firmID int64) (int, error) {
	list, _ := r.ListByFirm(ctx, firmID)
	return len(list), nil
}

func (r userRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	return r.mutate(id, func(u *entity.User) { u.PasswordHash = hash })
}

func (r userRepo) SetActiveClient(_ context.Context, id int64, rnc string) error {
	return r.mutate(id, func(u *entity.User) { u.ActiveClientRNC = rnc })
}

func (r userRepo) mutate(id int64, fn func(*entity.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(&u)
	r.s.users[id] = u
	return nil
}

func (r userRepo) Delete(_ context.Context, firmID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || u.FirmID != firmID {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)
	delete(r.s.assignments, id)
	return nil
}

func (r userRepo) AssignedClientIDs(_ context.Context, userID int64) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]int64{}, r.s.assignments[userID]...), nil
}

func (r userRepo) ReplaceAssignments(_ context.Context, userID int64, clientIDs []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.assignments[userID] = append([]int64(nil), clientIDs...)
	return nil
}

func (r userRepo) AssignClient(_ context.Context, userID, clientID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range r.s.assignments[userID] {
		if id == clientID {
			return nil
		}
	}
	r.s.assignments[userID] = append(r.s.assignments[userID], clientID)
	return nil
}

// ── facturas ──

type invoiceRepo struct{ s *Store }

func (r invoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv.ID = r.s.id()
	r.s.invoices[inv.ID] = *inv
	return nil
}

func (r invoiceRepo) GetByID(_ context.Context, firmID, id int64) (*entity.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok || inv.FirmID != firmID || inv.IsDeleted {
		return nil, nil
	}
	return &inv, nil
}

func (r invoiceRepo) List(_ context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.Invoice{}
	for _, inv := range r.s.invoices {
		if Matches(inv, f) {
			inv := inv
			out = append(out, &inv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Fecha == nil && b.Fecha == nil:
		case a.Fecha == nil:
			return false
		case b.Fecha == nil:
			return true
		case !a.Fecha.Equal(*b.Fecha):
			return a.Fecha.After(*b.Fecha)
		}
		return a.ID > b.ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r invoiceRepo) Count(ctx context.Context, f repository.InvoiceFilter) (int, error) {
	f.Limit = 0
	list, err := r.List(ctx, f)
	return len(list), err
}

func (r invoiceRepo) Update(_ context.Context, inv *entity.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.invoices[inv.ID]
	if !ok || cur.FirmID != inv.FirmID || cur.IsDeleted {
		return domain.ErrNotFound
	}
	r.s.invoices[inv.ID] = *inv
	return nil
}

func (r invoiceRepo) SoftDelete(_ context.Context, firmID, id int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok || inv.FirmID != firmID || inv.IsDeleted {
		return domain.ErrNotFound
	}
	inv.IsDeleted = true
	inv.DeletedAt = &at
	r.s.invoices[id] = inv
	return nil
}

func (r invoiceRepo) SoftDeleteByClient(_ context.Context, firmID, clientID int64, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, inv := range r.s.invoices {
		if inv.FirmID != firmID || inv.ClientID == nil || *inv.ClientID != clientID {
			continue
		}
		if !inv.IsDeleted {
			n++
			inv.IsDeleted = true
			inv.DeletedAt = &at
		}
		inv.ClientID = nil
		r.s.invoices[id] = inv
	}
	return n, nil
}

// Matches aplica InvoiceFilter a una factura con la misma semántica que el
// repositorio PostgreSQL.
func Matches(inv entity.Invoice, f repository.InvoiceFilter) bool {
	if inv.FirmID != f.FirmID || inv.IsDeleted {
		return false
	}
	if f.From != nil && (inv.Fecha == nil || inv.Fecha.Before(*f.From)) {
		return false
	}
	if f.To != nil && (inv.Fecha == nil || inv.Fecha.After(*f.To)) {
		return false
	}
	if f.CreatedFrom != nil && inv.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && !inv.CreatedAt.Before(*f.CreatedTo) {
		return false
	}
	if f.ClientName != "" && !strings.Contains(strings.ToLower(inv.ClientName), strings.ToLower(f.ClientName)) {
		return false
	}
	if f.ClientID != nil && (inv.ClientID == nil || *inv.ClientID != *f.ClientID) {
		return false
	}
	if f.ClientIDs != nil {
		if inv.ClientID == nil {
			return false
		}
		found := false
		for _, id := range f.ClientIDs {
			if id == *inv.ClientID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if st == inv.Status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.FlaggedOnly && !inv.FlagDudoso {
		return false
	}
	return true
}
