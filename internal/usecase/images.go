package usecase

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/shelfsync/backend/internal/domain"
)

const (
	uploadsPrefix     = "uploads/"
	productViewPrefix = "media/cache/product_view_default/"
)

var productImagePath = regexp.MustCompile(`/images/products/.*`)

// imageExclusions mark icons, placeholders and listing thumbnails.
var imageExclusions = []string{
	".svg", "icon", "logo", "heart", "cart", "arrow", "close",
	"search", "default.jpg", "default.png",
	"/media/cache/product_in_category_list",
	"/media/cache/brands_nav_slider",
}

var imageExtensions = []string{".webp", ".jpg", ".jpeg", ".png", ".gif"}

// imageCollector merges image URLs from several sources into one ordered,
// de-duplicated list.
type imageCollector struct {
	siteDomain string
	seen       map[string]bool
	images     []domain.ProductImage
}

func newImageCollector(siteDomain string) *imageCollector {
	return &imageCollector{siteDomain: siteDomain, seen: make(map[string]bool)}
}

// add appends the product images among urls. rewriteUploads maps original
// upload paths to the always-available product view size.
func (c *imageCollector) add(urls []string, rewriteUploads bool) {
	for _, raw := range urls {
		u := c.absolute(raw, rewriteUploads)
		if u == "" || !IsProductImage(u) {
			continue
		}
		key := ImagePathKey(u)
		if c.seen[key] {
			continue
		}
		c.seen[key] = true
		c.images = append(c.images, domain.ProductImage{
			SourceURL: encodeFilename(u),
			Position:  len(c.images) + 1,
		})
	}
}

func (c *imageCollector) absolute(raw string, rewriteUploads bool) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	path := strings.TrimLeft(raw, "/")
	if rewriteUploads && strings.HasPrefix(path, uploadsPrefix) {
		path = productViewPrefix + strings.TrimPrefix(path, uploadsPrefix)
	}
	return "https://" + c.siteDomain + "/" + path
}

// IsProductImage reports whether u looks like product photography rather
// than an icon or listing thumbnail.
func IsProductImage(u string) bool {
	lower := strings.ToLower(u)
	for _, pattern := range imageExclusions {
		if strings.Contains(lower, pattern) {
			return false
		}
	}
	if strings.Contains(u, "/images/products/") {
		return true
	}
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ImagePathKey returns the /images/products/... suffix shared by every size
// variant of one image, or u itself when it has none.
func ImagePathKey(u string) string {
	if m := productImagePath.FindString(u); m != "" {
		return m
	}
	return u
}

// encodeFilename percent-encodes the last path segment of u, leaving
// existing escapes intact.
func encodeFilename(u string) string {
	rest, tail := u, ""
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		rest, tail = u[:i], u[i:]
	}
	slash := strings.LastIndex(rest, "/")
	if scheme := strings.Index(rest, "://"); slash < 0 || (scheme >= 0 && slash <= scheme+2) {
		return u
	}
	return rest[:slash+1] + quoteFilename(rest[slash+1:]) + tail
}

// quoteFilename escapes name as a path segment. Already escaped names are
// decoded first so their escapes are not doubled.
func quoteFilename(name string) string {
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	return url.PathEscape(name)
}
