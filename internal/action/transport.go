package action

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// Значения по умолчанию.
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBody    = 10 * 1024 * 1024 // 10 MB
)

// Transport — исполнитель исходящих запросов.
//
// Ошибки сети возвращаются как *TransportError.
// HTTP статусы не считаются ошибками: тело захватывается при любом коде.
type Transport interface {
	Send(ctx context.Context, req *RequestDescriptor) (*Response, error)
}

// Response — захваченный ответ.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       any // распарсенный JSON, строка или nil для пустого тела
}

// HTTPTransport — Transport поверх net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport создаёт HTTPTransport с трассировкой через otelhttp.
// timeout <= 0 — используется таймаут по умолчанию.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPTransport{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// NewHTTPTransportWithClient создаёт HTTPTransport с готовым клиентом.
func NewHTTPTransportWithClient(client *http.Client) *HTTPTransport {
	return &HTTPTransport{client: client}
}

// Send выполняет запрос.
func (t *HTTPTransport) Send(ctx context.Context, desc *RequestDescriptor) (*Response, error) {
	body, contentType, err := encodeBody(desc.Body, desc.ContentType)
	if err != nil {
		return nil, &TransportError{Method: desc.Method, URL: desc.URL, Err: fmt.Errorf("encode body: %w", err)}
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, desc.Method, desc.URL, bodyReader)
	if err != nil {
		return nil, &TransportError{Method: desc.Method, URL: desc.URL, Err: err}
	}

	if desc.Headers != nil {
		req.Header = desc.Headers.Clone()
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %v", ctx.Err(), err)
		}
		return nil, &TransportError{Method: desc.Method, URL: desc.URL, Err: err}
	}
	defer resp.Body.Close()

	raw, err := readLimited(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: desc.Method, URL: desc.URL, Err: err}
	}

	// Accept-Encoding, проброшенный из входящего запроса, отключает
	// автоматическую распаковку в net/http.
	header := resp.Header
	if !resp.Uncompressed {
		if encoding := header.Get("Content-Encoding"); encoding != "" && len(raw) > 0 {
			decoded, ok, err := decompress(raw, encoding)
			if err != nil {
				return nil, &TransportError{Method: desc.Method, URL: desc.URL, Err: err}
			}
			if ok {
				raw = decoded
				header = header.Clone()
				header.Del("Content-Encoding")
				header.Del("Content-Length")
			}
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       decodeBody(raw, header.Get("Content-Type")),
	}, nil
}

// readLimited читает тело целиком. Тело больше maxResponseBody — ошибка.
func readLimited(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxResponseBody+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(raw) > maxResponseBody {
		return nil, fmt.Errorf("response body exceeds %d bytes", maxResponseBody)
	}
	return raw, nil
}

// decompress распаковывает тело по Content-Encoding.
// Для неизвестных кодировок возвращает ok=false и тело без изменений.
func decompress(raw []byte, encoding string) ([]byte, bool, error) {
	var r io.ReadCloser
	var err error

	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip", "x-gzip":
		r, err = gzip.NewReader(bytes.NewReader(raw))
	case "deflate":
		// По RFC 9110 deflate — это zlib, но часть серверов шлёт сырой deflate
		r, err = zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			r, err = flate.NewReader(bytes.NewReader(raw)), nil
		}
	default:
		return raw, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("decode %s response body: %w", encoding, err)
	}
	defer r.Close()

	decoded, err := readLimited(r)
	if err != nil {
		return nil, false, fmt.Errorf("decode %s response body: %w", encoding, err)
	}
	return decoded, true, nil
}

// encodeBody сериализует тело и определяет content type, если он не задан.
func encodeBody(body any, contentType string) ([]byte, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, contentType, nil

	case string:
		if contentType == "" {
			contentType = ContentTypeForm
		}
		return []byte(v), contentType, nil

	case []byte:
		if contentType == "" {
			contentType = ContentTypeBin
		}
		return v, contentType, nil

	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		if contentType == "" {
			contentType = ContentTypeJSON
		}
		return b, contentType, nil
	}
}

// decodeBody парсит тело ответа: JSON, если это возможно, иначе строка.
func decodeBody(raw []byte, contentType string) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if contentType == "" || strings.Contains(contentType, "json") {
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err == nil {
			return parsed
		}
	}
	return string(raw)
}
