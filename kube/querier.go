package kube

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/kbukum/kubeping/errors"
	"github.com/kbukum/kubeping/logger"
	"github.com/kbukum/kubeping/resilience"
	"github.com/kbukum/kubeping/security"
	"github.com/kbukum/kubeping/version"
)

// Querier lists the pods matching a label selector.
type Querier interface {
	Query(ctx context.Context, namespace, selector string) ([]PodRecord, error)
}

// NewQuerier picks a querier for cfg.Strategy. With StrategyAuto the
// structured client is used when a client configuration can be built and the
// raw fetcher otherwise.
func NewQuerier(cfg Config, log *logger.Logger) (Querier, error) {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("kube")

	switch cfg.Strategy {
	case StrategyRaw:
		return NewRawQuerier(cfg, log)
	case StrategyClient:
		restCfg, err := LoadRestConfig(cfg.Kubeconfig, cfg.Context)
		if err != nil {
			return nil, errors.Configuration("kubeconfig", err.Error()).WithCause(err)
		}
		return NewClientQuerierForConfig(restCfg, cfg, log)
	default:
		restCfg, err := LoadRestConfig(cfg.Kubeconfig, cfg.Context)
		if err != nil {
			log.Warn("structured client unavailable, using raw API fetch", logger.Fields(
				logger.FieldError, err.Error(), "base_url", cfg.BaseURL()))
			return NewRawQuerier(cfg, log)
		}
		return NewClientQuerierForConfig(restCfg, cfg, log)
	}
}

// LoadRestConfig resolves a client configuration: the explicit kubeconfig,
// then in-cluster, then the default loading rules (KUBECONFIG, ~/.kube/config).
func LoadRestConfig(kubeconfig, kubeContext string) (*rest.Config, error) {
	overrides := &clientcmd.ConfigOverrides{CurrentContext: kubeContext}
	if strings.TrimSpace(kubeconfig) != "" {
		cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
			&clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfig},
			overrides,
		).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("kube: load kubeconfig %q: %w", kubeconfig, err)
		}
		return cfg, nil
	}

	if cfg, err := rest.InClusterConfig(); err == nil {
		return cfg, nil
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("kube: default loading rules: %w", err)
	}
	return cfg, nil
}

// --- raw strategy ---

// RawQuerier fetches the pods document over HTTP and decodes it.
type RawQuerier struct {
	fetcher   *Fetcher
	baseURL   string
	tokenFile string
	log       *logger.Logger
	now       func() time.Time
}

// NewRawQuerier builds the TLS transport described by cfg.
func NewRawQuerier(cfg Config, log *logger.Logger) (*RawQuerier, error) {
	if log == nil {
		log = logger.NewNop()
	}
	tlsConfig, err := cfg.TLS.Build(log)
	if err != nil {
		return nil, errors.Configuration("tls", err.Error()).WithCause(err)
	}
	streams, err := NewHTTPStreamProvider(tlsConfig)
	if err != nil {
		return nil, errors.Configuration("transport", err.Error()).WithCause(err)
	}
	return NewRawQuerierWithFetcher(NewFetcher(cfg.FetcherConfig(), streams, log), cfg.BaseURL(), cfg.TokenFile, log), nil
}

// NewRawQuerierWithFetcher wires a querier around an existing fetcher.
// An empty tokenFile sends no Authorization header.
func NewRawQuerierWithFetcher(f *Fetcher, baseURL, tokenFile string, log *logger.Logger) *RawQuerier {
	if log == nil {
		log = logger.NewNop()
	}
	return &RawQuerier{fetcher: f, baseURL: baseURL, tokenFile: tokenFile, log: log, now: time.Now}
}

// Query fetches <base>/namespaces/<ns>/pods?labelSelector=<selector>.
func (q *RawQuerier) Query(ctx context.Context, namespace, selector string) ([]PodRecord, error) {
	url := PodsURL(q.baseURL, namespace, selector)
	raw, err := q.fetcher.Fetch(ctx, url, q.headers())
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

// headers re-reads the token on every query since projected tokens rotate.
func (q *RawQuerier) headers() http.Header {
	h := http.Header{}
	h.Set("User-Agent", version.UserAgent())
	if q.tokenFile == "" {
		return h
	}
	tok, err := security.ReadToken(q.tokenFile)
	if err != nil {
		if !stderrors.Is(err, os.ErrNotExist) {
			q.log.Warn("service account token unreadable", logger.Fields(logger.FieldError, err.Error()))
		}
		return h
	}
	if tok.Expired(q.now()) {
		q.log.Warn("service account token has expired", logger.Fields(
			"expires_at", tok.ExpiresAt, "service_account", tok.ServiceAccount))
	}
	h.Set("Authorization", tok.AuthorizationHeader())
	return h
}

// --- client strategy ---

// ClientQuerier lists pods through client-go.
type ClientQuerier struct {
	client kubernetes.Interface
	retry  resilience.RetryConfig
	log    *logger.Logger
}

// NewClientQuerier wraps an existing clientset with the retry policy of cfg.
func NewClientQuerier(client kubernetes.Interface, cfg Config, log *logger.Logger) *ClientQuerier {
	if log == nil {
		log = logger.NewNop()
	}
	return &ClientQuerier{
		client: client,
		retry:  resilience.FixedRetryConfig(cfg.OperationAttempts, cfg.OperationSleep),
		log:    log,
	}
}

// NewClientQuerierForConfig applies the timeouts and dump setting of cfg to
// restCfg and builds a clientset from it.
func NewClientQuerierForConfig(restCfg *rest.Config, cfg Config, log *logger.Logger) (*ClientQuerier, error) {
	restCfg = rest.CopyConfig(restCfg)
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}
	restCfg.Dial = dialer.DialContext
	restCfg.Timeout = cfg.ConnectTimeout + cfg.ReadTimeout
	restCfg.UserAgent = version.UserAgent()
	if d := newDumper(cfg.DumpRequests, cfg.DumpOut); d != nil {
		restCfg.Wrap(func(rt http.RoundTripper) http.RoundTripper {
			return &dumpRoundTripper{next: rt, dumper: d}
		})
	}

	clientset, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, errors.Configuration("kubeconfig", err.Error()).WithCause(err)
	}
	return NewClientQuerier(clientset, cfg, log), nil
}

// WithSleepFunc replaces the wait between attempts.
func (q *ClientQuerier) WithSleepFunc(fn func(ctx context.Context, d time.Duration) error) *ClientQuerier {
	q.retry.Sleep = fn
	return q
}

// Query lists pods across all namespaces matching selector. Namespace
// filtering is left to Classify so both strategies see the same input.
func (q *ClientQuerier) Query(ctx context.Context, namespace, selector string) ([]PodRecord, error) {
	retry := q.retry
	retry.RetryIf = resilience.WhileActive(ctx)
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		q.log.Warn("pod list attempt failed, retrying", logger.Fields(
			logger.FieldNamespace, namespace,
			logger.FieldSelector, selector,
			logger.FieldAttempt, attempt,
			logger.FieldError, err.Error(),
		))
	}

	attempts := 0
	list, err := resilience.Retry(ctx, retry, func(attempt int) ([]PodRecord, error) {
		attempts = attempt
		pods, err := q.client.CoreV1().Pods(metav1.NamespaceAll).List(ctx, metav1.ListOptions{LabelSelector: selector})
		if err != nil {
			return nil, err
		}
		return FromPodList(pods), nil
	})
	if err != nil {
		return nil, errors.Fetch("pods?labelSelector="+selector, attempts, err)
	}
	return list, nil
}
