package entity

import (
	"time"

	"github.com/contablebot/portal-api/pkg/rnc"
)

// Client cliente de la firma (empresa o persona cuyas facturas se procesan).
// RNC guarda siempre la forma compacta (solo dígitos); es la clave única por firma.
type Client struct {
	ID        int64
	FirmID    int64
	Name      string
	RNC       string
	CreatedAt time.Time
}

// RNCFormatted devuelve el RNC/cédula con guiones para mostrar.
func (c *Client) RNCFormatted() string {
	return rnc.FormatCompact(c.RNC)
}
