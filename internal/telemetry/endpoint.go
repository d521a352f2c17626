package telemetry

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoint is a parsed OTLP collector address.
type Endpoint struct {
	Raw      string
	Host     string // host:port, as the exporters expect
	Path     string // URL path for http/protobuf; empty selects the signal default
	Protocol Protocol
	Insecure bool
}

// ParseEndpoint parses an OTLP endpoint URI. The scheme selects protocol and
// transport security:
//
//	grpc://host:port   gRPC, plaintext
//	grpcs://host:port  gRPC, TLS
//	http://host:port   http/protobuf, plaintext
//	https://host:port  http/protobuf, TLS
//	host:port          defaultProtocol, plaintext
//
// Any path is used verbatim as the exporter URL path. ConfigFromEnv has
// already appended the signal path when the value came from the shared
// OTEL_EXPORTER_OTLP_ENDPOINT.
func ParseEndpoint(raw string, defaultProtocol Protocol) (Endpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Endpoint{}, fmt.Errorf("endpoint is empty")
	}

	ep := Endpoint{Raw: raw}

	if !strings.Contains(raw, "://") {
		host, path, _ := strings.Cut(raw, "/")
		if host == "" {
			return Endpoint{}, fmt.Errorf("endpoint %q has no host", raw)
		}
		ep.Host = host
		if path != "" {
			ep.Path = "/" + path
		}
		ep.Protocol = defaultProtocol
		ep.Insecure = true
		return ep, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: %w", raw, err)
	}
	if u.Host == "" {
		return Endpoint{}, fmt.Errorf("endpoint %q has no host", raw)
	}

	switch strings.ToLower(u.Scheme) {
	case "grpc":
		ep.Protocol, ep.Insecure = ProtocolGRPC, true
	case "grpcs":
		ep.Protocol, ep.Insecure = ProtocolGRPC, false
	case "http":
		ep.Protocol, ep.Insecure = ProtocolHTTP, true
	case "https":
		ep.Protocol, ep.Insecure = ProtocolHTTP, false
	default:
		return Endpoint{}, fmt.Errorf("endpoint %q has unsupported scheme %q", raw, u.Scheme)
	}

	ep.Host = u.Host
	if u.Path != "/" {
		ep.Path = u.Path
	}
	return ep, nil
}

// String returns the raw endpoint.
func (e Endpoint) String() string {
	return e.Raw
}

// ParseHeaders parses OTEL_EXPORTER_OTLP_HEADERS ("k1=v1,k2=v2"). Values are
// URL-decoded. An empty string yields no headers.
func ParseHeaders(raw string) (map[string]string, error) {
	headers := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return headers, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			// the pair may carry a credential, so it is not echoed back
			return nil, fmt.Errorf("malformed header entry, want key=value")
		}
		decoded, err := url.PathUnescape(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("header %q: invalid encoding", key)
		}
		headers[key] = decoded
	}
	return headers, nil
}
