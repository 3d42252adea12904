package ports

import (
	"context"
	"io"
)

// ObjectStorage puerto de salida para guardar las imágenes originales de las
// facturas. El adaptador concreto es S3 (o un compatible como MinIO).
type ObjectStorage interface {
	// Put sube body bajo key. size puede ser -1 si se desconoce.
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
}
