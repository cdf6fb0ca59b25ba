// Package classify turns raw audit dump files into typed system records by
// recognizing which collector script produced them and extracting the OS
// details the collector recorded.
package classify

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/ctxlog"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/encdetect"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/system"
)

// ErrUnknownProducer means no collector signature matched. Callers skip the
// file and keep going; it is not fatal to the run.
var ErrUnknownProducer = errors.New("unknown producer")

// ErrUndetectableEncoding means the file looks binary or unreadable.
var ErrUndetectableEncoding = errors.New("undetectable encoding")

// DetectFunc reports the text encoding of the file at path.
type DetectFunc func(path string) (string, bool)

// HashFunc computes a content digest for the file at path.
type HashFunc func(path string) (string, error)

// OpenFunc opens path decoded from the named encoding to UTF-8.
type OpenFunc func(path, enc string) (io.ReadCloser, error)

// Classifier builds system records from audit files. The encoding, hashing
// and decoding collaborators are injected at construction.
type Classifier struct {
	detect DetectFunc
	hash   HashFunc
	open   OpenFunc
}

// New returns a Classifier using the provided collaborators. A nil open
// falls back to the package's own decoder.
func New(detect DetectFunc, hash HashFunc, open OpenFunc) *Classifier {
	if open == nil {
		open = encdetect.Open
	}
	return &Classifier{detect: detect, hash: hash, open: open}
}

// ClassifyFile detects the file's encoding and classifies it.
func (c *Classifier) ClassifyFile(ctx context.Context, path string) (*system.System, error) {
	enc, ok := c.detect(path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrUndetectableEncoding)
	}
	return c.Classify(ctx, path, enc)
}

// Classify scans the file once, front to back, and returns a fully populated
// system record. The scan exits early once the producer signature, the
// producer's full OS detail set and (for Linux dumps) the distro family have
// all been captured. A file with no recognizable producer signature fails
// with ErrUnknownProducer.
func (c *Classifier) Classify(ctx context.Context, path, enc string) (*system.System, error) {
	logger := ctxlog.FromContext(ctx)

	r, err := c.open(path, enc)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var (
		producer = system.ProducerOther
		family   = system.OSUndefined
		version  string
		distro   system.DistroFamily
		attrs    = make(map[string]string)
		details  detailTable
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if producer == system.ProducerOther {
			// First signature wins; lines before it carry nothing useful.
			sig, ok := matchProducer(line)
			if !ok {
				continue
			}
			producer = sig.producer
			family = sig.family
			version = sig.version
			details = detailTables[producer]
			continue
		}

		for _, pat := range details.patterns {
			captureNamed(pat, line, attrs)
		}
		if family == system.OSLinux && distro == "" {
			distro = matchDistro(line)
		}

		if hasAll(attrs, details.required) && (family != system.OSLinux || distro != "") {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if producer == system.ProducerOther {
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownProducer)
	}

	// All named groups must be present before any OS details are reported; a
	// partial capture is discarded rather than surfaced as a half-filled
	// record.
	osDetails := ""
	if hasAll(attrs, details.required) {
		osDetails = details.compose(attrs)
	} else {
		logger.Debug("Incomplete OS detail capture, dropping partial attributes.", "path", path, "producer", producer)
		attrs = make(map[string]string)
	}

	hash, err := c.hash(path)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(abs)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	sys := &system.System{
		ID:              system.NextID(),
		Name:            name,
		Path:            abs,
		Encoding:        enc,
		Hash:            hash,
		OSFamily:        family,
		DistroFamily:    distro,
		Producer:        producer,
		ProducerVersion: version,
		OSDetails:       osDetails,
		Attrs:           attrs,
	}
	logger.Debug("Classified audit file.",
		"system", sys.Name, "producer", producer, "os_family", family, "details", osDetails)
	return sys, nil
}

// hasAll reports whether every required key has a value in attrs.
func hasAll(attrs map[string]string, required []string) bool {
	for _, k := range required {
		if attrs[k] == "" {
			return false
		}
	}
	return true
}
