package core

import (
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/Skryldev/image-client/utils"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// form writes multipart parts in exactly the order they are added. The
// encoded body is built in a pooled buffer and copied out on close.
type form struct {
	w   *multipart.Writer
	buf interface {
		Bytes() []byte
	}
	release func()
	err     error
}

func newForm() *form {
	buf := utils.AcquireBuffer()
	return &form{
		w:       multipart.NewWriter(buf),
		buf:     buf,
		release: func() { utils.ReleaseBuffer(buf) },
	}
}

// file adds a binary part carrying its own media type.
func (f *form) file(field, filename, mediaType string, data []byte) {
	if f.err != nil {
		return
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", mediaType)
	part, err := f.w.CreatePart(h)
	if err != nil {
		f.err = err
		return
	}
	_, f.err = part.Write(data)
}

// field adds a plain text part.
func (f *form) field(name, value string) {
	if f.err != nil {
		return
	}
	f.err = f.w.WriteField(name, value)
}

// close finishes the body and returns it with its Content-Type.
func (f *form) close() ([]byte, string, error) {
	defer f.release()
	if f.err != nil {
		return nil, "", f.err
	}
	if err := f.w.Close(); err != nil {
		return nil, "", err
	}
	return utils.CloneBytes(f.buf.Bytes()), f.w.FormDataContentType(), nil
}

// uploadFields appends the fields shared by both upload forms after the
// leading file or url part.
func (f *form) uploadFields(id string, requireSigned bool, meta map[string]string) {
	if id != "" {
		f.field("id", id)
	}
	f.field("requireSignedURLs", fmt.Sprintf("%t", requireSigned))
	if len(meta) > 0 {
		f.field("metadata", metadataField(meta))
	}
}
