// Package validation screens destination URLs and custom aliases before a
// link is stored.
package validation

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

var unsafeExtensions = []string{
	"exe", "dll", "bat", "cmd", "ps1", "vbs", "js", "jar", "war", "zip", "rar", "7z",
	"php", "asp", "jsp", "cgi", "pl", "py", "rb", "sh",
	"bin", "dat", "db", "sql", "sqlite", "mdb",
	"dmg", "iso", "img", "vhd", "vmdk",
	"pkg", "msi", "msm", "msp",
	"swf", "fla", "flv", "f4v", "f4p", "f4a", "f4b",
	"class", "ear", "sar", "nar",
	"bak", "tmp", "temp", "cache", "log",
	"config", "conf", "ini", "cfg", "xml", "json", "yaml", "yml",
	"key", "pem", "cert", "crt", "der", "p12", "pfx",
	"env", "env.*", ".env", ".env.*",
	"git", "svn", "hg", "bzr", "cvs",
	"lock", "pid", "sock", "pipe", "fifo",
}

var unsafeKeywords = []string{
	"core", "dump", "crash", "error", "fail",
	"backup", "restore", "recovery", "revert",
	"install", "setup", "uninstall", "remove",
	"update", "upgrade", "patch", "fix",
	"debug", "test", "dev", "staging", "prod",
	"local", "localhost", `127\.0\.0\.1`,
	"internal", "private", "secret", "hidden",
	"admin", "administrator", "root", "superuser",
	"system", "service", "daemon", "worker",
	"api", "rest", "graphql", "soap", "rpc",
	"auth", "login", "signin", "register", "signup",
	"password", "token", "credential",
	"session", "cookie", "storage",
	"upload", "download", "transfer", "share",
	"execute", "run", "start", "stop", "restart",
	"shell", "terminal", "console", "command",
	"script", "program", "application", "app",
	"process", "thread", "job", "task",
	"memory", "disk",
	"network", "socket", "port", "connection",
	"security", "firewall", "antivirus", "malware",
}

// unsafePath matches dangerous file extensions and keyword suffixes at the
// end of a URL path. Keywords count when preceded by '/' or '.'.
var unsafePath = regexp.MustCompile(`(?i)(\.(` + strings.Join(unsafeExtensions, "|") + `)|[/.](` +
	strings.Join(unsafeKeywords, "|") + `))$`)

var safeExtensions = []string{
	".html", ".htm", ".css", ".js", ".jpg", ".jpeg", ".png", ".gif", ".svg",
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt",
	".csv", ".xml", ".json", ".yaml", ".yml", ".md", ".markdown",
}

var safeContentTypes = []string{
	"text/html", "text/plain", "text/css", "text/javascript",
	"application/javascript", "application/json", "application/xml",
	"image/jpeg", "image/png", "image/gif", "image/svg+xml",
	"application/pdf", "application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// ValidateURL checks that raw parses as an absolute URL with scheme and host.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: url must include scheme (http:// or https://) and domain", domain.ErrInvalidURL)
	}
	if scheme := strings.ToLower(u.Scheme); scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidURL, u.Scheme)
	}
	return nil
}

// NormalizeURL lower-cases the scheme and host of a valid URL. Anything
// ValidateURL rejects is returned unchanged.
func NormalizeURL(raw string) string {
	if ValidateURL(raw) != nil {
		return raw
	}
	u, _ := url.Parse(raw)
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String()
}

// SafetyChecker screens URLs against the denylist and, when the path gives
// no answer, probes the remote content type.
type SafetyChecker struct {
	prober ports.ContentTypeProber
}

func NewSafetyChecker(prober ports.ContentTypeProber) *SafetyChecker {
	return &SafetyChecker{prober: prober}
}

// IsSafe returns nil when raw may be shortened.
func (c *SafetyChecker) IsSafe(ctx context.Context, raw string) error {
	if err := ValidateURL(raw); err != nil {
		return err
	}

	u, _ := url.Parse(raw)
	path := strings.ToLower(u.Path)

	if m := unsafePath.FindString(path); m != "" {
		return fmt.Errorf("%w: path ends with unsafe pattern %q", domain.ErrUnsafeURL, m)
	}

	if HasSafeExtension(path) {
		return nil
	}

	// Failed probes are not cached; every call goes back to the network.
	contentType, err := c.prober.ContentType(ctx, raw)
	if err != nil {
		return fmt.Errorf("%w: content type check failed", domain.ErrUnsafeURL)
	}
	if !IsSafeContentType(contentType) {
		return fmt.Errorf("%w: content type %q is not allowed", domain.ErrUnsafeURL, contentType)
	}
	return nil
}

// HasSafeExtension reports whether path ends with a known document or media
// extension. path must already be lower-cased.
func HasSafeExtension(path string) bool {
	for _, ext := range safeExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func IsSafeContentType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	if contentType == "" {
		return false
	}
	for _, t := range safeContentTypes {
		if strings.Contains(contentType, t) {
			return true
		}
	}
	return false
}
