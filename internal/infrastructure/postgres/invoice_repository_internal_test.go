package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/contablebot/portal-api/internal/domain/repository"
)

func TestBuildInvoiceWhere_SoloFirma(t *testing.T) {
	where, args := buildInvoiceWhere(repository.InvoiceFilter{FirmID: 7})
	assert.Equal(t, "firm_id = $1 AND NOT COALESCE(is_deleted, false)", where)
	assert.Equal(t, []any{int64(7)}, args)
}

func TestBuildInvoiceWhere_TodosLosFiltros(t *testing.T) {
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	clientID := int64(3)
	where, args := buildInvoiceWhere(repository.InvoiceFilter{
		FirmID:      7,
		From:        &from,
		To:          &to,
		ClientName:  "50%_off",
		ClientID:    &clientID,
		ClientIDs:   []int64{3, 4},
		Statuses:    []string{"pending", "processing"},
		FlaggedOnly: true,
	})

	assert.Equal(t, "firm_id = $1 AND NOT COALESCE(is_deleted, false) AND fecha >= $2 AND fecha <= $3"+
		" AND client_name ILIKE $4 AND client_id = $5 AND client_id = ANY($6) AND status = ANY($7) AND flag_dudoso", where)
	assert.Len(t, args, 7)
	assert.Equal(t, `%50\%\_off%`, args[3])
	assert.Equal(t, []int64{3, 4}, args[5])
}

func TestBuildInvoiceWhere_ClientesAsignadosVacios(t *testing.T) {
	where, args := buildInvoiceWhere(repository.InvoiceFilter{FirmID: 1, ClientIDs: []int64{}})
	assert.Contains(t, where, "client_id = ANY($2)")
	assert.Len(t, args, 2)
}

func TestBuildInvoiceWhere_Creacion(t *testing.T) {
	a := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	b := a.AddDate(0, 1, 0)
	where, _ := buildInvoiceWhere(repository.InvoiceFilter{FirmID: 1, CreatedFrom: &a, CreatedTo: &b})
	assert.Contains(t, where, "created_at >= $2 AND created_at < $3")
}
