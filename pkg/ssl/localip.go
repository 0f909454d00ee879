// Package ssl fetches a local-ip.sh certificate so the addon can be served
// over HTTPS on a LAN address, which Stremio requires for remote addons.
package ssl

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/amaumene/gostremiocz/pkg/httputil"
	"github.com/amaumene/gostremiocz/pkg/logger"
)

const (
	defaultCertURL = "https://local-ip.sh/server.pem"
	defaultKeyURL  = "https://local-ip.sh/server.key"

	keyFileMode = 0600
	dirMode     = 0755

	// local-ip.sh rotates its wildcard certificate; refetch before it lapses.
	certMaxAge = 30 * 24 * time.Hour

	probeAddr = "8.8.8.8:80"
)

// LocalIPCertificate caches the local-ip.sh wildcard certificate on disk.
type LocalIPCertificate struct {
	CertURL string
	KeyURL  string

	logger   logger.Logger
	dir      string
	hostname string
	client   *http.Client
}

// NewLocalIPCertificate stores certificates under dir, or a temp directory
// when dir is empty.
func NewLocalIPCertificate(dir string, log logger.Logger) *LocalIPCertificate {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "gostremiocz-ssl")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &LocalIPCertificate{
		CertURL: defaultCertURL,
		KeyURL:  defaultKeyURL,
		logger:  log,
		dir:     dir,
		client:  httputil.NewDefaultHTTPClient(),
	}
}

func (l *LocalIPCertificate) certPath() string { return filepath.Join(l.dir, "server.pem") }
func (l *LocalIPCertificate) keyPath() string  { return filepath.Join(l.dir, "server.key") }

// Setup detects the outbound LAN address and makes sure a fresh
// certificate is on disk.
func (l *LocalIPCertificate) Setup(ctx context.Context) error {
	ip, err := localIP()
	if err != nil {
		return fmt.Errorf("failed to get local IP: %w", err)
	}
	return l.SetupFor(ctx, ip)
}

// SetupFor is Setup with an explicit address.
func (l *LocalIPCertificate) SetupFor(ctx context.Context, ip net.IP) error {
	l.hostname = Hostname(ip)
	l.logger.Infof("[SSL] using hostname %s", l.hostname)

	if l.fresh() {
		l.logger.Debugf("[SSL] reusing certificate in %s", l.dir)
		return nil
	}

	if err := os.MkdirAll(l.dir, dirMode); err != nil {
		return fmt.Errorf("failed to create certificate directory: %w", err)
	}
	if err := l.download(ctx, l.CertURL, l.certPath(), 0644); err != nil {
		return fmt.Errorf("failed to download certificate: %w", err)
	}
	if err := l.download(ctx, l.KeyURL, l.keyPath(), keyFileMode); err != nil {
		return fmt.Errorf("failed to download private key: %w", err)
	}

	l.logger.Infof("[SSL] certificate downloaded")
	return nil
}

// Hostname maps an IPv4 address to its local-ip.sh name, e.g.
// 192.168.1.10 -> 192-168-1-10.local-ip.sh.
func Hostname(ip net.IP) string {
	return strings.ReplaceAll(ip.String(), ".", "-") + ".local-ip.sh"
}

// Hostname returns the name chosen by the last Setup.
func (l *LocalIPCertificate) Hostname() string {
	return l.hostname
}

// TLSConfig loads the cached key pair.
func (l *LocalIPCertificate) TLSConfig() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(l.certPath(), l.keyPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func (l *LocalIPCertificate) fresh() bool {
	cert, err := os.Stat(l.certPath())
	if err != nil {
		return false
	}
	if _, err := os.Stat(l.keyPath()); err != nil {
		return false
	}
	return time.Since(cert.ModTime()) < certMaxAge
}

func (l *LocalIPCertificate) download(ctx context.Context, url, dest string, mode os.FileMode) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// localIP returns the address of the interface used for outbound traffic.
// The UDP dial sends no packets.
func localIP() (net.IP, error) {
	conn, err := net.Dial("udp", probeAddr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP, nil
}
