package action

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBody(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		ct       string
		wantBody string
		wantCT   string
	}{
		{"nil", nil, "", "", ""},
		{"object", map[string]any{"a": float64(1)}, "", `{"a":1}`, ContentTypeJSON},
		{"string", "a=1&b=2", "", "a=1&b=2", ContentTypeForm},
		{"string as json", `"x"`, ContentTypeJSON, `"x"`, ContentTypeJSON},
		{"bytes", []byte{0x1, 0x2}, "", "\x01\x02", ContentTypeBin},
		{"array", []any{"a"}, "text/plain", `["a"]`, "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct, err := encodeBody(tt.body, tt.ct)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, string(body))
			assert.Equal(t, tt.wantCT, ct)
		})
	}
}

func TestEncodeBody_Unmarshalable(t *testing.T) {
	_, _, err := encodeBody(map[string]any{"ch": make(chan int)}, "")
	assert.Error(t, err)
}

func TestDecodeBody(t *testing.T) {
	assert.Nil(t, decodeBody(nil, "application/json"))
	assert.Nil(t, decodeBody([]byte("  \n"), ""))
	assert.Equal(t, map[string]any{"a": float64(1)}, decodeBody([]byte(`{"a":1}`), "application/json; charset=utf-8"))
	assert.Equal(t, []any{"x"}, decodeBody([]byte(`["x"]`), ""))
	assert.Equal(t, "not json", decodeBody([]byte("not json"), "application/json"))
	assert.Equal(t, `{"a":1}`, decodeBody([]byte(`{"a":1}`), "text/plain"))
}

// compressedBackend отдаёт {"foo":"bar"} в кодировке из query ?enc=.
func compressedBackend(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enc := r.URL.Query().Get("enc")

		var buf bytes.Buffer
		var zw io.WriteCloser
		switch enc {
		case "gzip":
			zw = gzip.NewWriter(&buf)
		case "deflate":
			zw = zlib.NewWriter(&buf)
		case "raw-deflate":
			zw, _ = flate.NewWriter(&buf, flate.DefaultCompression)
			enc = "deflate"
		}
		_, _ = zw.Write([]byte(`{"foo":"bar"}`))
		_ = zw.Close()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", enc)
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(server.Close)
	return server
}

func TestHTTPTransport_DecompressesWithForwardedAcceptEncoding(t *testing.T) {
	server := compressedBackend(t)
	transport := NewHTTPTransportWithClient(server.Client())

	for _, enc := range []string{"gzip", "deflate", "raw-deflate"} {
		t.Run(enc, func(t *testing.T) {
			resp, err := transport.Send(context.Background(), &RequestDescriptor{
				Method:  http.MethodGet,
				URL:     server.URL + "/?enc=" + enc,
				Headers: http.Header{"Accept-Encoding": {"gzip, deflate"}},
			})
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"foo": "bar"}, resp.Body)
			assert.Empty(t, resp.Header.Get("Content-Encoding"))
		})
	}
}

func TestHTTPTransport_CorruptEncodingIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write([]byte("definitely not gzip"))
	}))
	defer server.Close()

	_, err := NewHTTPTransportWithClient(server.Client()).Send(context.Background(), &RequestDescriptor{
		Method:  http.MethodGet,
		URL:     server.URL,
		Headers: http.Header{"Accept-Encoding": {"gzip"}},
	})
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
}

func TestHTTPTransport_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`"` + strings.Repeat("a", maxResponseBody) + `"`))
	}))
	defer server.Close()

	resp, err := NewHTTPTransportWithClient(server.Client()).Send(context.Background(), &RequestDescriptor{
		Method: http.MethodGet,
		URL:    server.URL,
	})
	require.Error(t, err)
	assert.Nil(t, resp)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Error(), "response body exceeds")
}

func TestHTTPTransport_BodyAtLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("a", maxResponseBody)))
	}))
	defer server.Close()

	resp, err := NewHTTPTransportWithClient(server.Client()).Send(context.Background(), &RequestDescriptor{
		Method: http.MethodGet,
		URL:    server.URL,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Body, maxResponseBody)
}
