package steprun

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sre-norns/gantry/pkg/suite"
)

const MetricsRelType = "metrics"

type Compression string

const (
	Identity Compression = "identity"
	Zstd     Compression = "zstd"
)

var defaultCompressionFormats = []Compression{Identity, Zstd}

type RegistryOptions struct {
	EnableOpenMetrics  bool
	DisableCompression bool

	OfferedCompressions []Compression
}

func encodingWriter(rw io.Writer, compression Compression) (io.Writer, func(), error) {
	switch compression {
	case Zstd:
		z, err := zstd.NewWriter(rw, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, func() {}, err
		}

		return z, func() { _ = z.Close() }, nil
	case Identity:
		return rw, func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("content compression format not recognized: %s. Valid formats are: %s", compression, defaultCompressionFormats)
	}
}

// MetricsToArtifact flattens everything a probe step gathered into its
// registry into a metrics artifact, in prometheus exposition format
func MetricsToArtifact(registry *prometheus.Registry, opts RegistryOptions) (suite.ArtifactValue, error) {
	compression := Identity
	if !opts.DisableCompression && len(opts.OfferedCompressions) > 0 {
		compression = opts.OfferedCompressions[0]
	}

	gatherer := prometheus.ToTransactionalGatherer(registry)
	mfs, done, err := gatherer.Gather()
	if err != nil {
		return suite.ArtifactValue{}, err
	}
	defer done()

	var headers http.Header
	var contentType expfmt.Format
	if opts.EnableOpenMetrics {
		contentType = expfmt.NegotiateIncludingOpenMetrics(headers)
	} else {
		contentType = expfmt.Negotiate(headers)
	}

	var buf bytes.Buffer
	w, closeWriter, err := encodingWriter(&buf, compression)
	if err != nil {
		w = &buf
	}
	defer closeWriter()

	enc := expfmt.NewEncoder(w, contentType)
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return suite.ArtifactValue{}, fmt.Errorf("failed to encode metrics family %q:%w", *mf.Name, err)
		}
	}

	return suite.ArtifactValue{
		Rel:      MetricsRelType,
		MimeType: string(contentType),
		Content:  buf.Bytes(),
	}, nil
}
