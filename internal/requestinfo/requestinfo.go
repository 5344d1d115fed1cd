//
//  internal/requestinfo/requestinfo.go
//
//  Per-request metadata for the "request" template context processor:
//  parsed user agent, client address, optional GeoIP country and city, and
//  the request line.  Values are plain data, safe to log or JSON-encode.
//
//  Dependencies
//  • github.com/avct/uasurfer          (UA parsing)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup, optional)
//

package requestinfo

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

//
//  -----------------------------
//  Types
//  -----------------------------
//

// UA holds the user-agent fields templates use.
type UA struct {
	Raw         string
	Browser     string // "Chrome", "Firefox", "Safari", ...
	Version     string // "124.0.6367"
	OS          string // "macOS", "Windows", "Android", "iOS", ...
	OSVersion   string
	Device      string // "Desktop", "Phone", "Tablet", ...
	Platform    string // "Mac", "Windows", "Linux", "iPhone", ...
	IsBot       bool
	PrimaryLang string // first Accept-Language tag
}

// Geo is best-effort location data; fields stay empty without a database.
type Geo struct {
	IP         net.IP
	CountryISO string
	City       string
}

// Info describes one request.
type Info struct {
	Method string
	Host   string
	Path   string
	Query  string
	Secure bool
	UA     UA
	Geo    Geo
	Time   time.Time
}

//
//  -----------------------------
//  Resolver
//  -----------------------------
//

// Resolver builds Info values.  The zero value works and skips GeoIP.
type Resolver struct {
	geo *geoip2.Reader
	now func() time.Time
}

// NewResolver opens the MaxMind City database at path.  An empty path
// disables lookups.
func NewResolver(path string) (*Resolver, error) {
	r := &Resolver{now: time.Now}
	if path == "" {
		return r, nil
	}
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip db %s: %w", path, err)
	}
	r.geo = db
	return r, nil
}

// Close releases the GeoIP handle, if any.
func (res *Resolver) Close() error {
	if res == nil || res.geo == nil {
		return nil
	}
	return res.geo.Close()
}

// Resolve collects Info for r.
func (res *Resolver) Resolve(r *http.Request) Info {
	now := time.Now
	if res != nil && res.now != nil {
		now = res.now
	}
	ip := ClientIP(r)
	return Info{
		Method: r.Method,
		Host:   r.Host,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Secure: r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https"),
		UA:     ParseUA(r.UserAgent(), r.Header.Get("Accept-Language")),
		Geo:    res.lookup(ip),
		Time:   now().UTC(),
	}
}

func (res *Resolver) lookup(ip net.IP) Geo {
	if res == nil || res.geo == nil || ip == nil {
		return Geo{IP: ip}
	}
	rec, err := res.geo.City(ip)
	if err != nil {
		return Geo{IP: ip}
	}
	return Geo{
		IP:         ip,
		CountryISO: rec.Country.IsoCode,
		City:       rec.City.Names["en"],
	}
}

//
//  -----------------------------
//  Parsing helpers
//  -----------------------------
//

// ParseUA converts a User-Agent header with uasurfer.
func ParseUA(header, acceptLang string) UA {
	u := uasurfer.Parse(header)

	osName := u.OS.Name.StringTrimPrefix()
	if osName == "MacOSX" {
		osName = "macOS"
	}

	return UA{
		Raw:         header,
		Browser:     u.Browser.Name.StringTrimPrefix(),
		Version:     version(u.Browser.Version),
		OS:          osName,
		OSVersion:   version(u.OS.Version),
		Device:      device(u.DeviceType),
		Platform:    u.OS.Platform.StringTrimPrefix(),
		IsBot:       u.IsBot(),
		PrimaryLang: primaryLang(acceptLang),
	}
}

// version renders major.minor.patch without trailing zero parts.
func version(v uasurfer.Version) string {
	parts := []string{strconv.Itoa(v.Major), strconv.Itoa(v.Minor), strconv.Itoa(v.Patch)}
	for len(parts) > 1 && parts[len(parts)-1] == "0" {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ".")
}

func device(dt uasurfer.DeviceType) string {
	switch dt {
	case uasurfer.DeviceComputer:
		return "Desktop"
	case uasurfer.DevicePhone:
		return "Phone"
	case uasurfer.DeviceTablet:
		return "Tablet"
	case uasurfer.DeviceConsole:
		return "Console"
	case uasurfer.DeviceWearable:
		return "Wearable"
	case uasurfer.DeviceTV:
		return "TV"
	default:
		return "Unknown"
	}
}

// primaryLang returns the first tag of an Accept-Language list, lowercased.
func primaryLang(al string) string {
	tag, _, _ := strings.Cut(al, ",")
	tag, _, _ = strings.Cut(tag, ";")
	return strings.ToLower(strings.TrimSpace(tag))
}

// ClientIP prefers the left-most X-Forwarded-For entry, then X-Real-Ip, then
// RemoteAddr.
func ClientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-Ip"))); ip != nil {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(r.RemoteAddr)
}
