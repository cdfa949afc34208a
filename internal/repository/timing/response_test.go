package timing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Success(t *testing.T) {
	payload, err := classify(&Response{StatusCode: 200, StatusText: "OK", Body: []byte(`{"data":{"self":"/projects/1"}}`)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"self":"/projects/1"}}`, string(payload))
}

func TestClassify_EmptyBodyIsNoContent(t *testing.T) {
	for _, status := range []int{200, 201, 204} {
		for _, body := range [][]byte{nil, []byte(""), []byte(" \n")} {
			payload, err := classify(&Response{StatusCode: status, Body: body})
			require.NoError(t, err)
			assert.Nil(t, payload)
		}
	}
}

func TestClassify_MalformedBodyIsParseError(t *testing.T) {
	_, err := classify(&Response{StatusCode: 200, URL: "https://x", Body: []byte("<html>")})

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "https://x", parseErr.URL)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestClassify_StatusBoundaries(t *testing.T) {
	for _, status := range []int{100, 199, 300, 301, 400, 500} {
		_, err := classify(&Response{StatusCode: status, StatusText: "X"})
		var apiErr *APIError
		assert.ErrorAs(t, err, &apiErr, "status %d", status)
	}
	for _, status := range []int{200, 299} {
		_, err := classify(&Response{StatusCode: status})
		assert.NoError(t, err, "status %d", status)
	}
}

func TestClassify_NotFound(t *testing.T) {
	_, err := classify(&Response{
		StatusCode: 404,
		StatusText: "Not Found",
		URL:        "https://web.timingapp.com/api/v1/projects/9",
		Body:       []byte(`{"message":"Not found."}`),
	})

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Not found.", notFound.Message)
	assert.Equal(t, 404, notFound.StatusCode)
	assert.Equal(t, "Not Found", notFound.StatusText)
	assert.Equal(t, "https://web.timingapp.com/api/v1/projects/9", notFound.URL)
	assert.True(t, IsNotFound(err))

	// every level of the hierarchy matches
	var apiErr *APIError
	var reqErr *RequestError
	assert.ErrorAs(t, err, &apiErr)
	assert.ErrorAs(t, err, &reqErr)
	assert.Contains(t, err.Error(), "Not found.")
}

func TestClassify_ValidationError(t *testing.T) {
	_, err := classify(&Response{
		StatusCode: 422,
		StatusText: "Unprocessable Entity",
		Body:       []byte(`{"message":"The given data was invalid.","errors":{"title":["The title field is required."],"color":"bad"}}`),
	})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.False(t, IsNotFound(err))
	assert.Equal(t, "The given data was invalid.", apiErr.Message)
	assert.Equal(t, []string{"The title field is required."}, apiErr.Errors["title"])
	assert.Equal(t, []string{"bad"}, apiErr.Errors["color"])
}

func TestClassify_FallsBackToStatusText(t *testing.T) {
	cases := []struct {
		resp *Response
		want string
	}{
		{&Response{StatusCode: 500, StatusText: "Internal Server Error", Body: []byte("<html>oops</html>")}, "Internal Server Error"},
		{&Response{StatusCode: 401, StatusText: "Unauthorized", Body: []byte(`{"error":"x"}`)}, "Unauthorized"},
		{&Response{StatusCode: 503, StatusText: "Service Unavailable"}, "Service Unavailable"},
		{&Response{StatusCode: 502}, "Bad Gateway"},
	}
	for _, c := range cases {
		_, err := classify(c.resp)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, c.want, apiErr.Message)
	}
}
