package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilehub/mobile-content/tests/testutil"
)

type submissionResult struct {
	Index  int    `json:"index"`
	PostID string `json:"post_id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

type postData struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Email         string            `json:"email"`
	Tags          []string          `json:"tags"`
	Categories    []string          `json:"categories"`
	FeaturedImage string            `json:"featured_image"`
	CustomFields  map[string]string `json:"custom_fields"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func doJSON(t *testing.T, serverURL, method, path string, body any, authorize func(*http.Request)) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, serverURL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorize != nil {
		authorize(req)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func basicAuth(req *http.Request) {
	req.SetBasicAuth(testutil.TestLogin, testutil.TestPassword)
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func submitRecords(t *testing.T, serverURL string, records []map[string]any) []submissionResult {
	t.Helper()

	resp := doJSON(t, serverURL, http.MethodPost, "/custom/v1/submit", records, basicAuth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeBody[[]submissionResult](t, resp)
}

func TestSubmitEndpoint(t *testing.T) {
	server := testutil.SetupTestServer()
	defer server.Close()

	records := []map[string]any{
		{
			"author_email":  "author@example.com",
			"title":         "Galaxy Fold",
			"content":       "Folding phone",
			"tags":          "folding, samsung",
			"categories":    "phones, foldables",
			"custom_fields": map[string]string{"storage": "512GB"},
		},
		{
			"title":   "No email",
			"content": "content",
		},
	}

	results := submitRecords(t, server.URL, records)
	require.Len(t, results, 2)

	assert.Equal(t, 0, results[0].Index)
	assert.Equal(t, "success", results[0].Status)
	assert.NotEmpty(t, results[0].PostID)

	assert.Equal(t, 1, results[1].Index)
	assert.Equal(t, "Author Email is a required field.", results[1].Error)
	assert.Empty(t, results[1].PostID)
}

func TestSubmitEndpointRejectsNonArray(t *testing.T) {
	server := testutil.SetupTestServer()
	defer server.Close()

	for _, payload := range []string{`{"title":"x"}`, `"just a string"`, `[1,2,3]`} {
		req, err := http.NewRequest(http.MethodPost, server.URL+"/custom/v1/submit",
			strings.NewReader(payload))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		basicAuth(req)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "payload %s", payload)

		body := decodeBody[errorBody](t, resp)
		assert.Equal(t, "invalid_data", body.Code)
		assert.Equal(t, "Data must be an array of posts.", body.Message)
		assert.Equal(t, 400, body.Status)
	}
}

func TestSubmitEndpointFormEncoded(t *testing.T) {
	server := testutil.SetupTestServer()
	defer server.Close()

	form := url.Values{}
	form.Set("0[author_email]", "form@example.com")
	form.Set("0[title]", "Form phone")
	form.Set("0[content]", "submitted as form data")
	form.Set("0[custom_fields][color]", "black")
	form.Set("1[author_email]", "form@example.com")
	form.Set("1[title]", "Second form phone")
	form.Set("1[content]", "more form data")

	req, err := http.NewRequest(http.MethodPost, server.URL+"/custom/v1/submit",
		strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	basicAuth(req)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	results := decodeBody[[]submissionResult](t, resp)
	require.Len(t, results, 2)
	assert.Equal(t, "success", results[0].Status)
	assert.Equal(t, "success", results[1].Status)
}

func TestFetchEndpointPaginationHeaders(t *testing.T) {
	server := testutil.SetupTestServer()
	defer server.Close()

	var records []map[string]any
	for i := 0; i < 12; i++ {
		records = append(records, map[string]any{
			"author_email": "author@example.com",
			"title":        fmt.Sprintf("Fetch post %02d", i+1),
			"content":      "content",
		})
	}
	submitRecords(t, server.URL, records)

	resp := doJSON(t, server.URL, http.MethodGet, "/custom/v1/fetch?page=2&per_page=5", nil, basicAuth)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "12", resp.Header.Get("X-WP-Total"))
	assert.Equal(t, "3", resp.Header.Get("X-WP-TotalPages"))

	posts := decodeBody[[]postData](t, resp)
	require.Len(t, posts, 5)
	assert.Equal(t, "Fetch post 06", posts[0].Title)
	assert.Equal(t, "Fetch post 10", posts[4].Title)
}

func TestFetchByEmailEndpoint(t *testing.T) {
	server := testutil.SetupTestServer()
	defer server.Close()

	submitRecords(t, server.URL, []map[string]any{
		{"author_email": "owner@example.com", "title": "Owned post", "content": "content"},
	})

	resp := doJSON(t, server.URL, http.MethodGet, "/custom/v1/fetch-by-email/owner@example.com", nil, basicAuth)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	posts := decodeBody[[]postData](t, resp)
	require.Len(t, posts, 1)
	assert.Equal(t, "Owned post", posts[0].Title)
	assert.Equal(t, "owner@example.com", posts[0].Email)
}

func TestFetchByEmailNotFound(t *testing.T) {
	server := testutil.SetupTestServer()
	defer server.Close()

	t.Run("unknown user", func(t *testing.T) {
		resp := doJSON(t, server.URL, http.MethodGet, "/custom/v1/fetch-by-email/nobody@example.com", nil, basicAuth)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		body := decodeBody[errorBody](t, resp)
		assert.Equal(t, "not_found", body.Code)
		assert.Equal(t, "User not found", body.Message)
	})

	t.Run("user without posts", func(t *testing.T) {
		// The seeded API credential exists but owns no posts.
		resp := doJSON(t, server.URL, http.MethodGet, "/custom/v1/fetch-by-email/"+testutil.TestEmail, nil, basicAuth)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		body := decodeBody[errorBody](t, resp)
		assert.Equal(t, "not_found", body.Code)
		assert.Equal(t, "No posts found for this user", body.Message)
	})
}
