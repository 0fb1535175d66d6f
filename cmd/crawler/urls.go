package main

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

// readURLs reads one URL per line. Blank lines and lines starting with "#"
// are skipped, and relative paths are resolved against base.
func readURLs(r io.Reader, base string) ([]string, error) {
	var baseURL *url.URL
	if base != "" {
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid base url %q: %w", base, err)
		}
		baseURL = u
	}

	var urls []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		resolved, err := resolveURL(line, baseURL)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		urls = append(urls, resolved)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url list: %w", err)
	}
	return urls, nil
}

func resolveURL(raw string, base *url.URL) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if base == nil {
		return "", fmt.Errorf("relative url %q without a base url", raw)
	}
	return base.ResolveReference(u).String(), nil
}

// collectURLs merges the URLs given as arguments with those listed in
// path ("-" reads standard input).
func collectURLs(args []string, path, base string, stdin io.Reader) ([]string, error) {
	var baseURL *url.URL
	if base != "" {
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid base url %q: %w", base, err)
		}
		baseURL = u
	}

	urls := make([]string, 0, len(args))
	for _, arg := range args {
		resolved, err := resolveURL(strings.TrimSpace(arg), baseURL)
		if err != nil {
			return nil, err
		}
		urls = append(urls, resolved)
	}

	if path == "" {
		return urls, nil
	}
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open url list: %w", err)
		}
		defer f.Close()
		r = f
	}
	listed, err := readURLs(r, base)
	if err != nil {
		return nil, err
	}
	return append(urls, listed...), nil
}
