package refdata

import (
	"context"
	"net/http"
	"time"

	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/pkg/errors"
)

// browserUserAgent is sent on every corpus request.  AnimalTFDB rejects
// default library user agents, so downloads present as a browser.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// DefaultSources maps each corpus to its upstream release URL.
var DefaultSources = map[string]string{
	CorpusGeneInfo:    "https://ftp.ncbi.nih.gov/gene/DATA/gene_info.gz",
	CorpusTFList:      "https://guolab.wchscu.cn/AnimalTFDB4_static/download/TF_list_final/Homo_sapiens_TF",
	CorpusCRList:      "https://maayanlab.cloud/Harmonizome/api/1.0/gene_set/chromatin+remodeling/GO+Biological+Process+Annotations+2023",
	CorpusCellosaurus: "https://ftp.expasy.org/databases/cellosaurus/cellosaurus.txt",
	CorpusEFO:         "https://github.com/EBISPOT/efo/releases/download/current/efo.owl",
	CorpusUberon:      "http://purl.obolibrary.org/obo/uberon/uberon-full.json",
}

// Downloader fetches corpus releases from their upstream sources into the
// reference store.
type Downloader struct {
	client  *http.Client
	store   Store
	sources map[string]string
	logger  logging.Logger
}

// DownloaderOption customises a Downloader.
type DownloaderOption func(*Downloader)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) DownloaderOption {
	return func(d *Downloader) { d.client = c }
}

// WithSources overrides individual corpus URLs; corpora absent from the map
// keep their defaults.
func WithSources(sources map[string]string) DownloaderOption {
	return func(d *Downloader) {
		for name, url := range sources {
			if url != "" {
				d.sources[name] = url
			}
		}
	}
}

// WithDownloaderLogger sets the logger.  Defaults to the nop logger.
func WithDownloaderLogger(l logging.Logger) DownloaderOption {
	return func(d *Downloader) { d.logger = l }
}

// NewDownloader constructs a Downloader writing into store.
func NewDownloader(store Store, opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		client:  &http.Client{Timeout: 10 * time.Minute},
		store:   store,
		sources: make(map[string]string, len(DefaultSources)),
		logger:  logging.NewNopLogger(),
	}
	for name, url := range DefaultSources {
		d.sources[name] = url
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fetch downloads one corpus into the store.
func (d *Downloader) Fetch(ctx context.Context, name string) error {
	url, ok := d.sources[name]
	if !ok {
		return errors.New(errors.ErrCodeReferenceDownload, "no source configured for corpus").
			WithDetail(name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeReferenceDownload, "failed to build corpus request").
			WithDetail(name)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeReferenceDownload, "failed to download corpus").
			WithDetail(name)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.ErrCodeReferenceDownload, "unexpected status downloading corpus").
			WithDetail(name + ": " + resp.Status)
	}

	if err := d.store.Put(ctx, name, resp.Body, resp.ContentLength); err != nil {
		return errors.Wrap(err, errors.ErrCodeReferenceDownload, "failed to store corpus").
			WithDetail(name)
	}
	d.logger.Info("corpus downloaded",
		logging.String("corpus", name),
		logging.Duration("elapsed", time.Since(start)))
	return nil
}

// FetchAll downloads every required corpus, stopping at the first failure.
func (d *Downloader) FetchAll(ctx context.Context) error {
	for _, name := range Corpora {
		if err := d.Fetch(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
