package rtpparam

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// Well-known codec parameter keys.
const (
	ParamApt                   = "apt"
	ParamPacketizationMode     = "packetization-mode"
	ParamProfileLevelID        = "profile-level-id"
	ParamLevelAsymmetryAllowed = "level-asymmetry-allowed"
	ParamProfileID             = "profile-id"
)

// CodecParameters holds codec-specific format parameters (the SDP fmtp line).
// Values are scalars kept in string form; JSON numbers and booleans decode into
// it and integer values encode back as JSON numbers.
type CodecParameters map[string]string

// Get returns the value for key.
func (p CodecParameters) Get(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

// Uint returns the value for key as an unsigned integer.
func (p CodecParameters) Uint(key string) (uint64, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// UintOr returns the value for key as an unsigned integer, or def if the key
// is absent or not numeric.
func (p CodecParameters) UintOr(key string, def uint64) uint64 {
	if n, ok := p.Uint(key); ok {
		return n
	}
	return def
}

// Clone returns a copy of the parameters. Clone of nil returns nil.
func (p CodecParameters) Clone() CodecParameters {
	if p == nil {
		return nil
	}
	out := make(CodecParameters, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Keys returns the parameter keys in sorted order.
func (p CodecParameters) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge returns a copy of p overlaid with other. Keys present in both take
// other's value.
func (p CodecParameters) Merge(other CodecParameters) CodecParameters {
	out := make(CodecParameters, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes integer values as JSON numbers and everything else as
// strings. Keys are emitted in sorted order.
func (p CodecParameters) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		v := p[k]
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && strconv.FormatInt(n, 10) == v {
			buf.WriteString(v)
			continue
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts string, number and boolean values.
func (p *CodecParameters) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(CodecParameters, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		var n json.Number
		dec := json.NewDecoder(bytes.NewReader(v))
		dec.UseNumber()
		if err := dec.Decode(&n); err == nil {
			out[k] = n.String()
			continue
		}
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return err
		}
		out[k] = strconv.FormatBool(b)
	}
	*p = out
	return nil
}
