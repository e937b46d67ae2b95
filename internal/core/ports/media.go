package ports

import (
	"context"
	"io"
)

// MediaStore uploads post images and returns their public URL, which is
// what a record's image_url holds.
type MediaStore interface {
	Upload(ctx context.Context, ownerID, filename string, body io.Reader) (string, error)
}
