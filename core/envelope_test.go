package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Skryldev/image-client/errors"
	"github.com/Skryldev/image-client/transport"
)

func response(status int, body string) *transport.Response {
	return &transport.Response{StatusCode: status, Body: []byte(body)}
}

func TestInterpretSuccess(t *testing.T) {
	body := `{"success":true,"errors":[],"messages":[],"result":{
		"id":"img-1","filename":"cat.png","uploaded":"2024-01-15T10:30:00Z",
		"requireSignedURLs":true,"variants":["https://cdn/x/img-1/public"],
		"meta":{"owner":"ann","size":42,"tags":["a","b"],"empty":null}}}`

	p, err := interpret[wireImage](OpGet, response(200, body)).Unwrap()
	require.NoError(t, err)

	img := p.Result.remote()
	assert.Equal(t, "img-1", img.ID)
	assert.Equal(t, "cat.png", img.Name)
	assert.True(t, img.RequiresSignedURL)
	assert.Equal(t, []string{"https://cdn/x/img-1/public"}, img.VariantURLs)
	assert.Equal(t, map[string]string{
		"owner": "ann",
		"size":  "42",
		"tags":  `["a","b"]`,
		"empty": "",
	}, img.Metadata)
}

func TestInterpretAbsentFields(t *testing.T) {
	p, err := interpret[wireImage](OpGet, response(200, `{"success":true,"result":{"id":"x"}}`)).Unwrap()
	require.NoError(t, err)

	img := p.Result.remote()
	assert.Nil(t, img.Metadata)
	assert.NotNil(t, img.VariantURLs)
	assert.Empty(t, img.VariantURLs)
}

func TestInterpretMarksMissingResult(t *testing.T) {
	for _, body := range []string{
		`{"success":true,"errors":[]}`,
		`{"success":true,"errors":[],"result":null}`,
	} {
		p, err := interpret[wireImage](OpGet, response(200, body)).Unwrap()
		require.NoError(t, err)
		assert.False(t, p.Present, body)
	}

	p, err := interpret[wireImage](OpGet, response(200, `{"success":true,"result":{}}`)).Unwrap()
	require.NoError(t, err)
	assert.True(t, p.Present)
}

func TestInterpretAPIError(t *testing.T) {
	body := `{"success":false,"errors":[{"code":1001,"message":"bad image"},{"code":1002,"message":"too big"}]}`

	for _, status := range []int{200, 400} {
		res := interpret[wireImage](OpUpload, response(status, body))
		require.True(t, res.IsError())
		assert.Equal(t, "bad image", res.Message())
		assert.True(t, apperrors.IsCategory(res.Err(), apperrors.CategoryAPI))

		var apiErr *apperrors.APIError
		require.ErrorAs(t, res.Err(), &apiErr)
		assert.Equal(t, []int{1001, 1002}, apiErr.Codes())
		assert.Equal(t, []string{"bad image", "too big"}, apiErr.Messages())
		assert.Equal(t, status, apiErr.StatusCode)
	}
}

func TestInterpretFailureWithoutErrors(t *testing.T) {
	res := interpret[wireImage](OpGet, response(200, `{"success":false,"errors":[]}`))
	require.True(t, res.IsError())
	assert.Equal(t, apperrors.FallbackMessage, res.Message())
}

func TestInterpretStatusError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"html body", "<html>Bad Gateway</html>"},
		{"success envelope", `{"success":true,"result":{}}`},
		{"failure without entries", `{"success":false,"errors":[]}`},
		{"empty body", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := interpret[wireImage](OpGet, response(502, tt.body))
			require.True(t, res.IsError())
			assert.Equal(t, "request failed with status 502", res.Message())
			assert.True(t, apperrors.IsCategory(res.Err(), apperrors.CategoryStatus))

			var statusErr *apperrors.StatusError
			require.ErrorAs(t, res.Err(), &statusErr)
			assert.Equal(t, tt.body, statusErr.Body)
		})
	}
}

func TestInterpretMalformedSuccess(t *testing.T) {
	res := interpret[wireImage](OpGet, response(200, "<html>ok</html>"))
	require.True(t, res.IsError())
	assert.True(t, apperrors.IsCategory(res.Err(), apperrors.CategoryDecode))

	res = interpret[wireImage](OpGet, response(200, `{"success":true,"result":{"variants":"nope"}}`))
	require.True(t, res.IsError())
	assert.True(t, apperrors.IsCategory(res.Err(), apperrors.CategoryDecode))
}

func TestListPageUsesResultInfo(t *testing.T) {
	body := `{"success":true,"result":{"images":[{"id":"a"},{"id":"b"}]},
		"result_info":{"count":2,"page":3,"per_page":2,"total_count":9}}`
	p, err := interpret[wireList](OpList, response(200, body)).Unwrap()
	require.NoError(t, err)

	page := listPage(p, 1, 50)
	assert.Len(t, page.Images, 2)
	assert.Equal(t, 2, page.Count)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 2, page.PerPage)
	assert.Equal(t, 9, page.TotalCount)
}

func TestListPageFallback(t *testing.T) {
	body := `{"success":true,"result":{"images":[{"id":"a"},{"id":"b"},{"id":"c"}]}}`
	p, err := interpret[wireList](OpList, response(200, body)).Unwrap()
	require.NoError(t, err)

	page := listPage(p, 2, 10)
	assert.Equal(t, 3, page.Count)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.PerPage)
	assert.Equal(t, 13, page.TotalCount)
	assert.False(t, page.HasMore())

	empty, err := interpret[wireList](OpList, response(200, `{"success":true,"result":{"images":[]}}`)).Unwrap()
	require.NoError(t, err)
	assert.NotNil(t, listPage(empty, 1, 20).Images)
}

func TestMetadataField(t *testing.T) {
	field := metadataField(map[string]string{
		"zeta":  "last",
		"alpha": `say "hi"`,
		"path":  `C:\tmp`,
	})
	assert.Equal(t, `{"alpha":"say \"hi\"","path":"C:\\tmp","zeta":"last"}`, field)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(field), &decoded))
	assert.Equal(t, `say "hi"`, decoded["alpha"])

	assert.Equal(t, "{}", metadataField(map[string]string{}))
}
