package server

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
)

// CatalogPrefix is the path the catalog is proxied under.
const CatalogPrefix = "/itunes"

// CatalogProxy forwards GET {CatalogPrefix}/... to the catalog host with the prefix removed.
type CatalogProxy struct {
	proxy *httputil.ReverseProxy
}

// NewCatalogProxy creates a proxy to target.
func NewCatalogProxy(target string, transport http.RoundTripper, logger *log.Logger) (*CatalogProxy, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid catalog URL %q", target)
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = strings.TrimPrefix(pr.In.URL.Path, CatalogPrefix)
			pr.Out.URL.RawPath = ""
			pr.SetURL(u)
			pr.SetXForwarded()
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("catalog proxy error", "target", target, "path", r.URL.Path, "error", err)
			writeError(w, http.StatusBadGateway, "catalog unavailable")
		},
	}
	return &CatalogProxy{proxy: proxy}, nil
}

// Routes implements [Handler].
func (p *CatalogProxy) Routes() []string {
	return []string{"GET " + CatalogPrefix + "/"}
}

func (p *CatalogProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.proxy.ServeHTTP(w, r)
}
