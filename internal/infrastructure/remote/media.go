package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
)

type uploadBody struct {
	URL string `json:"url"`
}

// UploadImage stores an image and returns the URL to put in image_url.
// The content type is taken from the file extension.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		return "", fmt.Errorf("upload %s: unknown image type", filename)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	var out uploadBody
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/storage/v1/images",
		raw:         &buf,
		contentType: w.FormDataContentType(),
	}, &out)
	return out.URL, err
}
