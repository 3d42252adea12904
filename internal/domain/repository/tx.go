package repository

import "context"

// Repos agrupa repositorios atados a una misma transacción.
type Repos struct {
	Clients  ClientRepository
	Invoices InvoiceRepository
	Users    UserRepository
}

// TxRunner ejecuta fn dentro de una transacción: Commit si fn devuelve nil,
// Rollback en cualquier otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repos) error) error
}
