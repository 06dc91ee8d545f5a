package store

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/marine-risk-pipeline/internal/domain"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/encoding/wkt"
)

// nullSentinel is the COPY text-format marker for SQL NULL.
const nullSentinel = `\N`

// positionColumns is the staging column order; positionsTSV must emit fields
// in exactly this order.
var positionColumns = []string{
	"mmsi", "base_date_time", "sog", "cog", "heading", "vessel_name",
	"imo", "call_sign", "vessel_type", "status", "length", "width",
	"draft", "cargo", "transceiver", "geom_wkt",
}

// positionsTSV flattens position reports into a COPY-ready tab-separated
// buffer. The WKB geometry is decoded once per row and re-serialized as WKT
// for the staging relation's text geometry column.
func positionsTSV(records []domain.PositionReport) (*bytes.Buffer, error) {
	var buf bytes.Buffer

	for i := range records {
		r := &records[i]

		geom, err := wkb.Unmarshal(r.Geometry)
		if err != nil {
			return nil, fmt.Errorf("decode geometry of row %d: %w", i, err)
		}

		fields := []string{
			strconv.FormatInt(int64(r.MMSI), 10),
			escapeCopyText(r.BaseDateTime),
			f32Field(r.SOG),
			f32Field(r.COG),
			i32Field(r.Heading),
			strField(r.VesselName),
			strField(r.IMO),
			strField(r.CallSign),
			i32Field(r.VesselType),
			i32Field(r.Status),
			f32Field(r.Length),
			i32Field(r.Width),
			f32Field(r.Draft),
			i32Field(r.Cargo),
			strField(r.Transceiver),
			escapeCopyText(wkt.MarshalString(geom)),
		}

		buf.WriteString(strings.Join(fields, "\t"))
		buf.WriteByte('\n')
	}
	return &buf, nil
}

func strField(v *string) string {
	if v == nil {
		return nullSentinel
	}
	return escapeCopyText(*v)
}

func f32Field(v *float32) string {
	if v == nil {
		return nullSentinel
	}
	return strconv.FormatFloat(float64(*v), 'g', -1, 32)
}

func i32Field(v *int32) string {
	if v == nil {
		return nullSentinel
	}
	return strconv.FormatInt(int64(*v), 10)
}

// escapeCopyText escapes the characters COPY text format treats specially.
// Backslash must be first so later escapes are not double-escaped.
func escapeCopyText(s string) string {
	if !strings.ContainsAny(s, "\\\t\n\r") {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	return s
}
