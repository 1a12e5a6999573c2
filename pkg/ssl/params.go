// Package ssl derives concrete per-role TLS parameter bundles from the
// deployment globals tree.
//
// A role ("client", "server", "admin", ...) may carry its own ssl section
// inside globals; anything the section leaves unset falls back to the
// shared certificate directory and the published defaults. Resolution is a
// pure transformation: no file access, no handshake, no logging.
package ssl

import (
	"path/filepath"
	"strings"

	"github.com/polisai/sslresolve/pkg/globals"
)

// Globals keys read during resolution. The role ssl section keys are the
// wire format produced by the test harness and must not change.
const (
	installRootKey = "install_root"
	useSSLKey      = "use_ssl"
	sslSectionKey  = "ssl"

	keystoreJKSKey        = "key_store_jks"
	keystorePathKey       = "key_store_path"
	keystorePasswordKey   = "key_store_password"
	truststoreJKSKey      = "trust_store_jks"
	truststorePathKey     = "trust_store_path"
	truststorePasswordKey = "trust_store_password"
)

// Defaults applied when use_ssl is on but the role section supplies no
// overrides. Exported because configuration builders and tests assert
// against them directly.
const (
	DefaultInstallRoot = "/opt"

	DefaultServerKeystore = "server.jks"
	DefaultClientKeystore = "client.jks"
	DefaultAdminKeystore  = "admin.jks"
	DefaultTruststore     = "truststore.jks"
	DefaultPassword       = "123456"
)

// flagTrue is the only use_ssl value that enables SSL. The flag arrives as
// a string; anything else, including absence, is treated as false.
const flagTrue = "True"

// Params is the resolved TLS parameter bundle for one role. All four
// fields are populated together; an absent bundle is a nil *Params, never
// a partially filled value.
type Params struct {
	KeystorePath       string
	KeystorePassword   string
	TruststorePath     string
	TruststorePassword string
}

// Equal reports field-wise equality.
func (p Params) Equal(other Params) bool {
	return p == other
}

// CertificateDir returns the shared certificate directory of a deployment,
// the location against which bare keystore and truststore filenames are
// resolved.
func CertificateDir(installRoot string) string {
	return filepath.Join(installRoot, "polis-dev", "testing", "certs")
}

// DefaultKeystore returns the default keystore filename for a role. The
// published constants DefaultServerKeystore, DefaultClientKeystore and
// DefaultAdminKeystore are the instances for the well-known roles.
func DefaultKeystore(role string) string {
	return role + ".jks"
}

// Enabled reports whether SSL is active for this run. Only the exact
// string "True" enables it; malformed values are not an error, they
// disable SSL.
func Enabled(g globals.Globals) bool {
	return parseFlag(g.StringOr(useSSLKey, ""))
}

func parseFlag(s string) bool {
	return s == flagTrue
}

// fallbacks holds caller-supplied defaults collected from Options. They
// take effect only where the role ssl section is silent; the globals tree
// always wins.
type fallbacks struct {
	keystoreJKS        string
	keystorePath       string
	keystorePassword   string
	truststoreJKS      string
	truststorePath     string
	truststorePassword string
}

// Option customises the defaults a service brings to resolution, the way
// a server process defaults to server.jks while the control utility
// defaults to admin.jks.
type Option func(*fallbacks)

// WithKeystore sets the fallback keystore filename, resolved against the
// certificate directory.
func WithKeystore(filename string) Option {
	return func(f *fallbacks) { f.keystoreJKS = filename }
}

// WithKeystorePath sets the fallback keystore path, used verbatim.
func WithKeystorePath(path string) Option {
	return func(f *fallbacks) { f.keystorePath = path }
}

// WithKeystorePassword sets the fallback keystore password.
func WithKeystorePassword(password string) Option {
	return func(f *fallbacks) { f.keystorePassword = password }
}

// WithTruststore sets the fallback truststore filename, resolved against
// the certificate directory.
func WithTruststore(filename string) Option {
	return func(f *fallbacks) { f.truststoreJKS = filename }
}

// WithTruststorePath sets the fallback truststore path, used verbatim.
func WithTruststorePath(path string) Option {
	return func(f *fallbacks) { f.truststorePath = path }
}

// WithTruststorePassword sets the fallback truststore password.
func WithTruststorePassword(password string) Option {
	return func(f *fallbacks) { f.truststorePassword = password }
}

// Resolve derives the TLS parameter bundle for role from the globals tree.
//
// It returns (nil, nil) when use_ssl is missing or not "True", regardless
// of any role ssl content. Otherwise each credential resolves
// independently: an explicit *_path wins and is used verbatim, a bare
// *_jks filename is joined onto the certificate directory, and with
// neither present the default filename for that credential kind is used.
// Passwords fall back to DefaultPassword.
//
// Supplying both *_jks and *_path for one credential is a configuration
// ambiguity and returns a *ConfigError. A blank role is a caller error.
//
// Resolve never mutates globals and is safe for concurrent use.
func Resolve(g globals.Globals, role string, opts ...Option) (*Params, error) {
	if strings.TrimSpace(role) == "" {
		return nil, NewConfigValidationError("role", role, "role must not be blank").
			WithSuggestion("Pass the name of the role section to resolve, e.g. \"client\"")
	}

	if !Enabled(g) {
		return nil, nil
	}

	var fb fallbacks
	for _, opt := range opts {
		opt(&fb)
	}

	section := roleSSLSection(g, role)
	certDir := CertificateDir(g.StringOr(installRootKey, DefaultInstallRoot))

	keystorePath, err := resolveCredential(section, credential{
		jksKey:       keystoreJKSKey,
		pathKey:      keystorePathKey,
		fallbackJKS:  fb.keystoreJKS,
		fallbackPath: fb.keystorePath,
		defaultName:  DefaultKeystore(role),
	}, certDir)
	if err != nil {
		return nil, err
	}

	truststorePath, err := resolveCredential(section, credential{
		jksKey:       truststoreJKSKey,
		pathKey:      truststorePathKey,
		fallbackJKS:  fb.truststoreJKS,
		fallbackPath: fb.truststorePath,
		defaultName:  DefaultTruststore,
	}, certDir)
	if err != nil {
		return nil, err
	}

	return &Params{
		KeystorePath:       keystorePath,
		KeystorePassword:   resolvePassword(section, keystorePasswordKey, fb.keystorePassword),
		TruststorePath:     truststorePath,
		TruststorePassword: resolvePassword(section, truststorePasswordKey, fb.truststorePassword),
	}, nil
}

// roleSSLSection walks globals → role → ssl, treating any missing level as
// "no overrides". A nil Globals answers false to every lookup.
func roleSSLSection(g globals.Globals, role string) globals.Globals {
	roleSection, ok := g.Section(role)
	if !ok {
		return nil
	}
	sslSection, ok := roleSection.Section(sslSectionKey)
	if !ok {
		return nil
	}
	return sslSection
}

// credential describes how one credential kind (keystore or truststore)
// resolves: its section keys, the caller fallbacks, and the default
// filename when nothing else applies.
type credential struct {
	jksKey       string
	pathKey      string
	fallbackJKS  string
	fallbackPath string
	defaultName  string
}

func resolveCredential(section globals.Globals, c credential, certDir string) (string, error) {
	jks, hasJKS := section.String(c.jksKey)
	path, hasPath := section.String(c.pathKey)

	switch {
	case hasJKS && hasPath:
		return "", NewConfigAmbiguityError(c.jksKey, c.pathKey).
			WithSuggestion("Keep the explicit path and remove the bare filename, or vice versa")
	case hasPath:
		return path, nil
	case hasJKS:
		return filepath.Join(certDir, jks), nil
	}

	switch {
	case c.fallbackJKS != "" && c.fallbackPath != "":
		return "", NewConfigAmbiguityError(c.jksKey, c.pathKey).
			WithSuggestion("Supply either a filename or a path option for the credential, not both")
	case c.fallbackPath != "":
		return c.fallbackPath, nil
	case c.fallbackJKS != "":
		return filepath.Join(certDir, c.fallbackJKS), nil
	}

	return filepath.Join(certDir, c.defaultName), nil
}

func resolvePassword(section globals.Globals, key, fallback string) string {
	if password, ok := section.String(key); ok {
		return password
	}
	if fallback != "" {
		return fallback
	}
	return DefaultPassword
}
