package ports

import "github.com/contablebot/portal-api/internal/application/dto"

// Report606Renderer genera el PDF del formato 606 a partir de filas ya calculadas.
type Report606Renderer interface {
	Render606(report *dto.Report606) ([]byte, error)
}
