package sample

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/turtacn/geometax/pkg/errors"
)

// MINiML records carry far more boilerplate than an extraction prompt can
// afford: platform references, protocols, contact blocks, supplementary file
// listings.  SimplifySample and SimplifySeries reduce a record to the lines
// that describe the biology, one "Tag(attr="v"): text" line per element.

var sampleExcluded = map[string]struct{}{
	"Platform":           {},
	"Platform-Ref":       {},
	"Library-Source":     {},
	"Library-Selection":  {},
	"Instrument-Model":   {},
	"Contact-Ref":        {},
	"Supplementary-Data": {},
	"Relation":           {},
	"Data-Processing":    {},
	"Extract-Protocol":   {},
}

var seriesExcluded = map[string]struct{}{
	"Status":             {},
	"Contributor-Ref":    {},
	"Sample-Ref":         {},
	"Relation":           {},
	"Supplementary-Data": {},
}

type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []xmlNode  `xml:",any"`
}

func (n *xmlNode) tag() string { return n.XMLName.Local }

func (n *xmlNode) child(tag string) *xmlNode {
	for i := range n.Children {
		if n.Children[i].tag() == tag {
			return &n.Children[i]
		}
	}
	return nil
}

// line renders "Tag(attr="v") ...: text", or "" for an element whose own
// text is blank.
func (n *xmlNode) line() string {
	text := strings.TrimSpace(n.Text)
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(n.tag())
	for _, attr := range n.Attrs {
		fmt.Fprintf(&b, "(%s=%q)", attr.Name.Local, attr.Value)
	}
	b.WriteString(": ")
	b.WriteString(text)
	return b.String()
}

func parseRoot(raw []byte) (*xmlNode, error) {
	var root xmlNode
	dec := xml.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&root); err != nil {
		return nil, err
	}
	return &root, nil
}

// SimplifySample reduces a GSM MINiML document to its descriptive lines.
// Channel elements keep their sub-structure (minus extraction protocols) and
// are appended last under a "Channel:" heading, the way curators read them.
func SimplifySample(raw []byte) (string, error) {
	root, err := parseRoot(raw)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeRecordParseFailed, "malformed sample XML")
	}
	s := root.child("Sample")
	if s == nil {
		return "", errors.New(errors.ErrCodeRecordParseFailed, "no Sample element in document")
	}

	var lines []string
	var channels []string
	for i := range s.Children {
		child := &s.Children[i]
		tag := child.tag()
		if _, skip := sampleExcluded[tag]; skip {
			continue
		}
		if tag == "Channel" {
			var parts []string
			for j := range child.Children {
				sub := &child.Children[j]
				if sub.tag() == "Extract-Protocol" {
					continue
				}
				if line := sub.line(); line != "" {
					parts = append(parts, line)
				}
			}
			if len(parts) > 0 {
				channels = append(channels, strings.Join(parts, "\n"))
			}
			continue
		}
		if line := child.line(); line != "" {
			lines = append(lines, line)
		}
	}

	if len(channels) > 0 {
		lines = append(lines, "Channel:")
		lines = append(lines, strings.Join(channels, "\n"))
	}
	return strings.Join(lines, "\n"), nil
}

// SimplifySeries reduces a GSE MINiML document to its descriptive lines.
func SimplifySeries(raw []byte) (string, error) {
	root, err := parseRoot(raw)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeRecordParseFailed, "malformed series XML")
	}
	s := root.child("Series")
	if s == nil {
		return "", errors.New(errors.ErrCodeRecordParseFailed, "no Series element in document")
	}

	var lines []string
	for i := range s.Children {
		child := &s.Children[i]
		if _, skip := seriesExcluded[child.tag()]; skip {
			continue
		}
		if line := child.line(); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
