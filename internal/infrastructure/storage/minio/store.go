package minio

import (
	"bytes"
	"context"
	"io"

	"github.com/turtacn/geometax/pkg/errors"
)

// Record object keys follow the GEO mirror layout: gsm/GSM12345.xml and
// gse/GSE999.xml.
const (
	sampleKeyPrefix = "gsm/"
	seriesKeyPrefix = "gse/"
	recordSuffix    = ".xml"
)

// RecordStore serves mirrored MINiML documents from the records bucket.  It
// implements the sample loader's store contract.
type RecordStore struct {
	client ObjectClient
	bucket string
}

// NewRecordStore builds a RecordStore over the given bucket.
func NewRecordStore(client ObjectClient, bucket string) *RecordStore {
	return &RecordStore{client: client, bucket: bucket}
}

// SampleKey returns the object key for a GSM accession.
func SampleKey(gsmID string) string { return sampleKeyPrefix + gsmID + recordSuffix }

// SeriesKey returns the object key for a GSE accession.
func SeriesKey(gseID string) string { return seriesKeyPrefix + gseID + recordSuffix }

// Sample fetches the MINiML XML for one GSM accession.
func (s *RecordStore) Sample(ctx context.Context, gsmID string) ([]byte, error) {
	data, err := s.client.Download(ctx, s.bucket, SampleKey(gsmID))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Wrap(err, errors.ErrCodeRecordNotFound, "sample record not mirrored").
				WithDetail(gsmID)
		}
		return nil, err
	}
	return data, nil
}

// Series fetches the MINiML XML for one GSE accession.
func (s *RecordStore) Series(ctx context.Context, gseID string) ([]byte, error) {
	data, err := s.client.Download(ctx, s.bucket, SeriesKey(gseID))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Wrap(err, errors.ErrCodeRecordNotFound, "series record not mirrored").
				WithDetail(gseID)
		}
		return nil, err
	}
	return data, nil
}

// PutSample mirrors a GSM document, replacing any previous version.
func (s *RecordStore) PutSample(ctx context.Context, gsmID string, xml []byte) error {
	return s.client.Upload(ctx, s.bucket, SampleKey(gsmID), bytes.NewReader(xml), int64(len(xml)))
}

// PutSeries mirrors a GSE document, replacing any previous version.
func (s *RecordStore) PutSeries(ctx context.Context, gseID string, xml []byte) error {
	return s.client.Upload(ctx, s.bucket, SeriesKey(gseID), bytes.NewReader(xml), int64(len(xml)))
}

// ReferenceStore serves raw corpus releases from the reference bucket.  It
// implements the refdata store contract.
type ReferenceStore struct {
	client ObjectClient
	bucket string
}

// NewReferenceStore builds a ReferenceStore over the given bucket.
func NewReferenceStore(client ObjectClient, bucket string) *ReferenceStore {
	return &ReferenceStore{client: client, bucket: bucket}
}

// Get opens a corpus object for streaming.
func (s *ReferenceStore) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.client.DownloadStream(ctx, s.bucket, name)
}

// Put stores a corpus object, replacing any previous release.
func (s *ReferenceStore) Put(ctx context.Context, name string, r io.Reader, size int64) error {
	return s.client.Upload(ctx, s.bucket, name, r, size)
}
