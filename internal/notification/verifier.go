package notification

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"gallery_api/internal/lib/logger/sl"

	"github.com/patrickmn/go-cache"
)

const maxCertSize = 64 << 10

var snsHostPattern = regexp.MustCompile(`^sns\.[a-z0-9-]+\.amazonaws\.com(\.cn)?$`)

// Verifier checks that an envelope was signed by SNS for an allowed topic.
type Verifier struct {
	log          *slog.Logger
	region       string
	topics       map[string]struct{}
	trustedHosts map[string]struct{}
	client       *http.Client
	certs        *cache.Cache
}

type VerifierOption func(*Verifier)

func WithHTTPClient(client *http.Client) VerifierOption {
	return func(v *Verifier) {
		v.client = client
	}
}

// WithTrustedCertHost accepts certificates served from host in addition to
// the SNS endpoints.
func WithTrustedCertHost(host string) VerifierOption {
	return func(v *Verifier) {
		v.trustedHosts[host] = struct{}{}
	}
}

// NewVerifier returns a Verifier for region. An empty topics list allows every
// topic. Downloaded certificates are kept for certTTL.
func NewVerifier(log *slog.Logger, region string, topics []string, certTTL time.Duration, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		log:          log,
		region:       region,
		topics:       make(map[string]struct{}, len(topics)),
		trustedHosts: make(map[string]struct{}),
		client:       &http.Client{Timeout: 5 * time.Second},
		certs:        cache.New(certTTL, 2*certTTL),
	}
	for _, t := range topics {
		v.topics[t] = struct{}{}
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns nil if env carries a valid SNS signature.
func (v *Verifier) Validate(ctx context.Context, env Envelope) error {
	const op = "notification.Verifier.Validate"
	log := v.log.With(
		slog.String("op", op),
		slog.String("message_id", env.MessageID),
		slog.String("topic_arn", env.TopicArn),
	)

	if len(v.topics) > 0 {
		if _, ok := v.topics[env.TopicArn]; !ok {
			return fmt.Errorf("%s: %w", op, ErrTopicNotAllowed)
		}
	}

	if err := v.checkCertURL(env.SigningCertURL); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var hash crypto.Hash
	switch env.SignatureVersion {
	case "1":
		hash = crypto.SHA1
	case "2":
		hash = crypto.SHA256
	default:
		return fmt.Errorf("%s: %w: signature version %q", op, ErrInvalidSignature, env.SignatureVersion)
	}

	signature, err := base64.StdEncoding.DecodeString(env.Signature)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrInvalidSignature, err)
	}

	canonical, err := env.stringToSign()
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrInvalidSignature, err)
	}

	key, err := v.publicKey(ctx, env.SigningCertURL)
	if err != nil {
		log.Warn("failed to load signing certificate", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := rsa.VerifyPKCS1v15(key, hash, digest(hash, canonical), signature); err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	return nil
}

func (v *Verifier) checkCertURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUntrustedCertURL, err)
	}
	if u.Scheme != "https" || !strings.HasSuffix(u.Path, ".pem") {
		return ErrUntrustedCertURL
	}
	if _, ok := v.trustedHosts[u.Host]; ok {
		return nil
	}

	host := u.Hostname()
	if v.region != "" {
		if host == "sns."+v.region+".amazonaws.com" || host == "sns."+v.region+".amazonaws.com.cn" {
			return nil
		}
		return ErrUntrustedCertURL
	}
	if !snsHostPattern.MatchString(host) {
		return ErrUntrustedCertURL
	}

	return nil
}

func (v *Verifier) publicKey(ctx context.Context, certURL string) (*rsa.PublicKey, error) {
	if cached, ok := v.certs.Get(certURL); ok {
		return cached.(*rsa.PublicKey), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, certURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch certificate: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCertSize))
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(body)
	if block == nil {
		return nil, fmt.Errorf("%w: certificate is not PEM encoded", ErrInvalidSignature)
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: certificate key is not RSA", ErrInvalidSignature)
	}

	v.certs.Set(certURL, key, cache.DefaultExpiration)

	return key, nil
}

func digest(hash crypto.Hash, s string) []byte {
	if hash == crypto.SHA1 {
		sum := sha1.Sum([]byte(s))
		return sum[:]
	}
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}
