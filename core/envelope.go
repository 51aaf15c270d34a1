package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/Skryldev/image-client/errors"
	"github.com/Skryldev/image-client/result"
	"github.com/Skryldev/image-client/transport"
)

// envelope is the wrapper the API puts around every response.
type envelope struct {
	Success    bool                      `json:"success"`
	Errors     []apperrors.APIErrorEntry `json:"errors"`
	Messages   json.RawMessage           `json:"messages"`
	Result     json.RawMessage           `json:"result"`
	ResultInfo *resultInfo               `json:"result_info"`
}

type resultInfo struct {
	Count      int `json:"count"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalCount int `json:"total_count"`
}

// payload is a successfully unwrapped envelope.
type payload[T any] struct {
	Result  T
	Present bool // result was neither absent nor null
	Info    *resultInfo
}

// interpret turns a raw response into the operation's result:
//
//   - a non-2xx status whose body is not a failure envelope is a StatusError
//     carrying the raw body
//   - success:false is an APIError holding every entry in server order
//   - success:true decodes result into T
func interpret[T any](op string, resp *transport.Response) result.Result[payload[T]] {
	var env envelope
	decodeErr := json.Unmarshal(resp.Body, &env)

	if !resp.IsSuccess() {
		if decodeErr == nil && !env.Success && len(env.Errors) > 0 {
			return result.FromError[payload[T]](apperrors.New(apperrors.CategoryAPI, op,
				apperrors.NewAPIError(resp.StatusCode, env.Errors)))
		}
		return result.FromError[payload[T]](apperrors.New(apperrors.CategoryStatus, op,
			&apperrors.StatusError{StatusCode: resp.StatusCode, Body: resp.Text()}))
	}

	if decodeErr != nil {
		return result.FromError[payload[T]](apperrors.New(apperrors.CategoryDecode, op, decodeErr))
	}
	if !env.Success {
		return result.FromError[payload[T]](apperrors.New(apperrors.CategoryAPI, op,
			apperrors.NewAPIError(resp.StatusCode, env.Errors)))
	}

	var out T
	present := len(env.Result) > 0 && string(env.Result) != "null"
	if present {
		if err := json.Unmarshal(env.Result, &out); err != nil {
			return result.FromError[payload[T]](apperrors.New(apperrors.CategoryDecode, op, err))
		}
	}
	return result.Success(payload[T]{Result: out, Present: present, Info: env.ResultInfo})
}

// ── Wire records ──────────────────────────────────────────────────────────────

type wireImage struct {
	ID                string         `json:"id"`
	Filename          string         `json:"filename"`
	Uploaded          string         `json:"uploaded"`
	RequireSignedURLs bool           `json:"requireSignedURLs"`
	Variants          []string       `json:"variants"`
	Meta              map[string]any `json:"meta"`
}

func (w wireImage) remote() RemoteImage {
	img := RemoteImage{
		ID:                w.ID,
		Name:              w.Filename,
		UploadedAt:        w.Uploaded,
		RequiresSignedURL: w.RequireSignedURLs,
		VariantURLs:       append([]string(nil), w.Variants...),
	}
	if len(w.Meta) > 0 {
		img.Metadata = make(map[string]string, len(w.Meta))
		for k, v := range w.Meta {
			img.Metadata[k] = metaString(v)
		}
	}
	if img.VariantURLs == nil {
		img.VariantURLs = []string{}
	}
	return img
}

// metaString renders a metadata value as text. Strings pass through; other
// JSON values keep their JSON form.
func metaString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

type wireList struct {
	Images []wireImage `json:"images"`
}

type wireStats struct {
	Count struct {
		Current int64 `json:"current"`
		Allowed int64 `json:"allowed"`
	} `json:"count"`
}

// listPage builds an ImageListPage, preferring the server's paging block and
// deriving the counters from the request when it is absent.
func listPage(p payload[wireList], page, perPage int) ImageListPage {
	images := make([]RemoteImage, len(p.Result.Images))
	for i, w := range p.Result.Images {
		images[i] = w.remote()
	}
	out := ImageListPage{
		Images:     images,
		Count:      len(images),
		Page:       page,
		PerPage:    perPage,
		TotalCount: (page-1)*perPage + len(images),
	}
	if info := p.Info; info != nil {
		if info.Count > 0 {
			out.Count = info.Count
		}
		if info.Page > 0 {
			out.Page = info.Page
		}
		if info.PerPage > 0 {
			out.PerPage = info.PerPage
		}
		if info.TotalCount > 0 {
			out.TotalCount = info.TotalCount
		}
	}
	return out
}

// metadataField renders metadata as the JSON object string the upload form
// expects. Keys are sorted so the field is stable.
func metadataField(meta map[string]string) string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, quote(k)+":"+quote(meta[k]))
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
