package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mlsorensen/btscan/pkg/render"
)

// destinations are the optional report files; empty means not requested.
type destinations struct {
	text string
	xml  string
	json string
}

// output is one rendered report. An empty name is stdout.
type output struct {
	name string
	data []byte
}

// buildOutputs renders every requested report. Scan kinds that did not run
// or failed are left out; when both kinds are present a blank line separates
// them.
func buildOutputs(r render.Report, dst destinations) ([]output, error) {
	var textParts, xmlParts []string
	if r.Classic != nil {
		textParts = append(textParts, render.Text(r.Classic))
		if dst.xml != "" {
			doc, err := render.XML(render.RootClassic, r.Classic)
			if err != nil {
				return nil, errors.Wrap(err, "render classic xml")
			}
			xmlParts = append(xmlParts, doc)
		}
	}
	if r.LE != nil {
		textParts = append(textParts, render.TextLE(r.LE))
		if dst.xml != "" {
			doc, err := render.XMLLE(render.RootLE, r.LE)
			if err != nil {
				return nil, errors.Wrap(err, "render le xml")
			}
			xmlParts = append(xmlParts, doc)
		}
	}

	text := joinSections(textParts)
	outputs := []output{{data: text}}
	if dst.text != "" {
		outputs = append(outputs, output{name: dst.text, data: text})
	}
	if dst.xml != "" {
		outputs = append(outputs, output{name: dst.xml, data: joinSections(xmlParts)})
	}
	if dst.json != "" {
		doc, err := render.JSON(r)
		if err != nil {
			return nil, errors.Wrap(err, "render json")
		}
		outputs = append(outputs, output{name: dst.json, data: []byte(doc + "\n")})
	}
	return outputs, nil
}

// joinSections terminates each section with a newline and puts an empty line
// between sections.
func joinSections(parts []string) []byte {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p)
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// writeOutputs writes every output, continuing past failures. It returns the
// last error.
func writeOutputs(d deps, outputs []output, log logrus.FieldLogger) error {
	var last error
	for _, o := range outputs {
		var err error
		if o.name == "" {
			_, err = d.stdout.Write(o.data)
			err = errors.Wrap(err, "write stdout")
		} else {
			err = errors.Wrapf(d.writeFile(o.name, o.data), "write %s", o.name)
		}
		if err != nil {
			log.WithError(err).Error("Output failed")
			fmt.Fprintf(d.stderr, "btscan: %v\n", err)
			last = err
		}
	}
	return last
}
