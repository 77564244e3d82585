package render

import (
	"encoding/json"

	"github.com/mlsorensen/btscan"
)

// Report is the combined result of one run. A nil slice means that kind of
// scan did not run and is left out of the output; an empty slice means it
// ran and found nothing.
type Report struct {
	Classic []btscan.ClassicDevice
	LE      []btscan.LEDevice
}

// JSON renders the report as an object keyed by scan kind. The keys are the
// XML roots, "bluetooth" and "btle". Reports from earlier btscan versions
// used "blle" for the BLE key.
func JSON(r Report) (string, error) {
	out := make(map[string]any, 2)
	if r.Classic != nil {
		out[RootClassic] = r.Classic
	}
	if r.LE != nil {
		out[RootLE] = r.LE
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
