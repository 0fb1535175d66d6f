package usecase

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/shelfsync/backend/internal/domain"
)

// Default catalog settings
const (
	defaultStoreName            = "ViaPharma"
	defaultSiteDomain           = "benu.bg"
	defaultGoogleCategory       = "Health & Beauty > Health Care > Pharmacy"
	defaultTitleMaxLength       = 70
	defaultDescriptionMaxLength = 155
	defaultAltTextMaxLength     = 125
)

// CategoryMapping maps a storefront category (or category prefix) to a
// Google Shopping taxonomy path.
type CategoryMapping struct {
	Category       string
	GoogleCategory string
}

// Catalog is the immutable dictionary data shared by every extraction of a
// batch run: known brands, the taxonomy map and the SEO budgets.
type Catalog struct {
	SiteDomain            string
	StoreName             string
	Brands                []string
	CategoryMap           []CategoryMapping
	DefaultGoogleCategory string
	TitleMaxLength        int
	DescriptionMaxLength  int
	AltTextMaxLength      int
}

// NewCatalog builds a catalog from configuration values. The category map
// is ordered by key so that prefix matching is deterministic.
func NewCatalog(cfg Catalog, categoryMap map[string]string) Catalog {
	c := cfg
	c.Brands = append([]string(nil), cfg.Brands...)
	c.CategoryMap = append([]CategoryMapping(nil), cfg.CategoryMap...)

	keys := make([]string, 0, len(categoryMap))
	for k := range categoryMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.CategoryMap = append(c.CategoryMap, CategoryMapping{Category: k, GoogleCategory: categoryMap[k]})
	}
	return c.withDefaults()
}

func (c Catalog) withDefaults() Catalog {
	if strings.TrimSpace(c.SiteDomain) == "" {
		c.SiteDomain = defaultSiteDomain
	}
	if strings.TrimSpace(c.StoreName) == "" {
		c.StoreName = defaultStoreName
	}
	if c.DefaultGoogleCategory == "" {
		c.DefaultGoogleCategory = defaultGoogleCategory
	}
	if c.TitleMaxLength <= 0 {
		c.TitleMaxLength = defaultTitleMaxLength
	}
	if c.DescriptionMaxLength <= 0 {
		c.DescriptionMaxLength = defaultDescriptionMaxLength
	}
	if c.AltTextMaxLength <= 0 {
		c.AltTextMaxLength = defaultAltTextMaxLength
	}
	return c
}

// RequireSiteURL accepts only https URLs on siteDomain or one of its
// subdomains. Anything else is domain.ErrInvalidRequest.
func RequireSiteURL(raw, siteDomain string) error {
	site := strings.ToLower(strings.Trim(strings.TrimSpace(siteDomain), "."))
	if site == "" {
		return fmt.Errorf("%w: no site domain configured", domain.ErrInvalidRequest)
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: malformed url", domain.ErrInvalidRequest)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("%w: url must use https", domain.ErrInvalidRequest)
	}
	if u.User != nil || u.Port() != "" {
		return fmt.Errorf("%w: url must not carry credentials or a port", domain.ErrInvalidRequest)
	}
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host != site && !strings.HasSuffix(host, "."+site) {
		return fmt.Errorf("%w: host %q is not on %s", domain.ErrInvalidRequest, host, site)
	}
	return nil
}
