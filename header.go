package ortho

import (
	"fmt"
	"regexp"
	"strings"
)

// HaMStR writes sequence headers as group|taxon|annotation. Aliscore,
// ALICUT, infoalign and FastTree cannot parse pipes in identifiers, so
// headers bound for those tools are serialized with SafeDelim instead.
const (
	// Delim separates header fields in HaMStR output.
	Delim = "|"
	// SafeDelim replaces Delim at the boundary of pipe-hostile tools.
	SafeDelim = "@"
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Header identifies one sequence record: the ortholog group it belongs
// to, the taxon code of the contributing species, and free-form
// provenance text from the upstream search.
type Header struct {
	Group      string
	Taxon      string
	Annotation string
}

// HeaderError reports a header line violating the field constraints.
type HeaderError struct {
	Line   string
	Reason string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("malformed header %q: %s", e.Line, e.Reason)
}

// ParseHeader splits a pipe-delimited header into its three fields.
func ParseHeader(s string) (Header, error) {
	return parseHeader(s, Delim)
}

// ParseSafeHeader parses a header serialized with the tool-safe delimiter.
func ParseSafeHeader(s string) (Header, error) {
	return parseHeader(s, SafeDelim)
}

func parseHeader(s, delim string) (Header, error) {
	fields := strings.Split(s, delim)
	if len(fields) != 3 {
		return Header{}, &HeaderError{Line: s, Reason: fmt.Sprintf("expected 3 fields, got %d", len(fields))}
	}
	for _, f := range fields {
		if !fieldPattern.MatchString(f) {
			return Header{}, &HeaderError{Line: s, Reason: fmt.Sprintf("field %q outside [A-Za-z0-9_]", f)}
		}
	}

	return Header{Group: fields[0], Taxon: fields[1], Annotation: fields[2]}, nil
}

// String renders the header in HaMStR form.
func (h Header) String() string {
	return h.Group + Delim + h.Taxon + Delim + h.Annotation
}

// Safe renders the header with the tool-safe delimiter.
func (h Header) Safe() string {
	return h.Group + SafeDelim + h.Taxon + SafeDelim + h.Annotation
}

// Short renders the header without the group field, for the stages
// after group identity has moved into the file name. It uses the
// tool-safe delimiter, since every later consumer is a tree tool.
func (h Header) Short() string {
	return h.Taxon + SafeDelim + h.Annotation
}
