// Package rewrite builds outbound request descriptors from inbound requests.
package rewrite

import (
	"net/http"
	"net/url"
	"strings"

	"keymaster-proxy-go/internal/model"
)

// Rewrite produces the outbound descriptor for forwarding pr to the upstream
// rooted at base. When credential is non-empty the inbound authorization
// header is replaced with "Bearer <credential>"; the inbound value has
// served its routing purpose and must never reach the upstream. When it is
// empty, headers pass through unmodified. stripPrefix, when non-empty, has
// its first occurrence removed from the inbound path.
//
// The body is forwarded as-is: no buffering, no size limit, consumed once.
func Rewrite(pr *model.ProxyRequest, base *url.URL, credential, stripPrefix string) *model.OutboundRequest {
	path := pr.Path
	if stripPrefix != "" {
		path = strings.Replace(path, stripPrefix, "", 1)
	}

	target := url.URL{
		Scheme:   base.Scheme,
		Host:     base.Host,
		Path:     joinPath(base.Path, path),
		RawQuery: pr.RawQuery, // verbatim, never re-encoded
	}

	header := make(http.Header, len(pr.Header))
	for k, vals := range pr.Header {
		header[k] = append([]string(nil), vals...)
	}
	header.Set("Host", base.Host)
	if credential != "" {
		header.Set("Authorization", "Bearer "+credential)
	}

	return &model.OutboundRequest{
		Ctx:    pr.Ctx,
		Method: pr.Method,
		URL:    target.String(),
		Host:   base.Host,
		Header: header,
		Body:   pr.Body,
	}
}

// joinPath concatenates the upstream base path and the forwarded path,
// collapsing the slash at the seam so a base path of "/v1/" plus
// "/chat/completions" yields "/v1/chat/completions".
func joinPath(basePath, path string) string {
	if basePath == "" {
		return path
	}
	if strings.HasSuffix(basePath, "/") && strings.HasPrefix(path, "/") {
		return basePath[:len(basePath)-1] + path
	}
	return basePath + path
}
