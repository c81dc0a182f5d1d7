package vmconfig

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// MissingFieldsError lists required keys absent from a submission.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "Missing required configuration fields: " + strings.Join(e.Fields, ", ")
}

// Values returns the record as ordered key/value strings.
func (r Record) Values() [][2]string {
	return [][2]string{
		{KeyCallType, r.CallType},
		{KeyModelVersion, r.ModelVersion},
		{KeyOriginLat, formatFloat(r.OriginLat)},
		{KeyOriginLon, formatFloat(r.OriginLon)},
		{KeyOriginRot, formatFloat(r.OriginRot)},
		{KeyExtentX, formatFloat(r.ExtentX)},
		{KeyExtentY, formatFloat(r.ExtentY)},
		{KeyExtentZMax, formatFloat(r.ExtentZMax)},
		{KeyExtentZMin, formatFloat(r.ExtentZMin)},
		{KeyExtentZSpacing, formatFloat(r.ExtentZSpacing)},
		{KeyExtentLatLonSpacing, formatFloat(r.ExtentLatLonSpacing)},
		{KeyMinVS, formatFloat(r.MinVS)},
		{KeyTopoType, string(r.TopoType)},
		{KeyOutputDir, r.OutputDir},
	}
}

// Text renders the record as KEY=VALUE lines, the generator's config file
// format.
func (r Record) Text() []byte {
	var buf bytes.Buffer
	for i, kv := range r.Values() {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(kv[0])
		buf.WriteByte('=')
		buf.WriteString(kv[1])
	}
	return buf.Bytes()
}

// WriteTo writes the config file form of the record.
func (r Record) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Text())
	return int64(n), err
}

// Parse reads a KEY=VALUE config file. Blank lines and lines starting with
// '#' are skipped; unknown keys are an error.
func Parse(in io.Reader) (Record, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		key, value, ok := strings.Cut(text, "=")
		if !ok {
			return Record{}, fmt.Errorf("line %d: expected KEY=VALUE", line)
		}
		key = strings.TrimSpace(key)
		if !slices.Contains(Keys, key) {
			return Record{}, fmt.Errorf("line %d: unknown key %q", line, key)
		}
		values[key] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("read config: %w", err)
	}

	raw := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		raw[k], _ = json.Marshal(v)
	}
	return fromRaw(raw)
}

// DecodeJSON reads a submission body. Numbers may be JSON numbers or numeric
// strings; every key in RequiredKeys must be present.
func DecodeJSON(in io.Reader) (Record, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(in).Decode(&raw); err != nil {
		return Record{}, fmt.Errorf("decode config: %w", err)
	}
	return fromRaw(raw)
}

func fromRaw(raw map[string]json.RawMessage) (Record, error) {
	var missing []string
	for _, k := range RequiredKeys {
		if _, ok := raw[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return Record{}, &MissingFieldsError{Fields: missing}
	}

	var rec Record
	var err error
	str := func(key string, dst *string) {
		if err != nil {
			return
		}
		v, ok := raw[key]
		if !ok {
			return
		}
		*dst, err = decodeString(key, v)
	}
	num := func(key string, dst *float64) {
		if err != nil {
			return
		}
		*dst, err = decodeFloat(key, raw[key])
	}

	str(KeyCallType, &rec.CallType)
	str(KeyModelVersion, &rec.ModelVersion)
	num(KeyOriginLat, &rec.OriginLat)
	num(KeyOriginLon, &rec.OriginLon)
	num(KeyOriginRot, &rec.OriginRot)
	num(KeyExtentX, &rec.ExtentX)
	num(KeyExtentY, &rec.ExtentY)
	num(KeyExtentZMax, &rec.ExtentZMax)
	num(KeyExtentZMin, &rec.ExtentZMin)
	num(KeyExtentZSpacing, &rec.ExtentZSpacing)
	num(KeyExtentLatLonSpacing, &rec.ExtentLatLonSpacing)
	num(KeyMinVS, &rec.MinVS)
	var topo string
	str(KeyTopoType, &topo)
	str(KeyOutputDir, &rec.OutputDir)
	if err != nil {
		return Record{}, err
	}
	rec.TopoType = TopoType(topo)
	return rec, nil
}

func decodeString(key string, v json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("%s: expected a string", key)
}

func decodeFloat(key string, v json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return 0, fmt.Errorf("%s: expected a number", key)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, s)
	}
	return f, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
