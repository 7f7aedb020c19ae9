package product

import (
	"bufio"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Specs is a free-form attribute map stored as JSONB.
type Specs map[string]string

func (s Specs) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

func (s *Specs) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*s = Specs{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("specs: unsupported type %T", src)
	}

	out := Specs{}
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	*s = out
	return nil
}

// NormalizeSpecs trims keys and values and rejects empty keys.
func NormalizeSpecs(in map[string]string) (Specs, error) {
	out := make(Specs, len(in))
	for k, v := range in {
		key := strings.TrimSpace(k)
		if key == "" {
			return nil, ErrEmptySpecKey
		}
		out[key] = strings.TrimSpace(v)
	}
	return out, nil
}

var errSpecLine = errors.New("expected \"key: value\"")

// ParseSpecsText reads one "key: value" pair per line. Blank lines are skipped.
func ParseSpecsText(text string) (Specs, error) {
	out := Specs{}
	sc := bufio.NewScanner(strings.NewReader(text))
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		key, value, ok := strings.Cut(raw, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("line %d: %w", line, errSpecLine)
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out, sc.Err()
}

// FormatSpecsText renders specs as sorted "key: value" lines.
func FormatSpecsText(s Specs) string {
	keys := s.Keys()
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(s[k])
		b.WriteByte('\n')
	}
	return b.String()
}

func (s Specs) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SpecSuggestions are the keys the admin form pre-fills per product type.
var SpecSuggestions = map[Type][]string{
	TypeCPU:       {"socket", "cores", "threads", "base_clock", "boost_clock", "cache", "tdp", "integrated_graphics"},
	TypeGPU:       {"chipset", "vram", "memory_type", "boost_clock", "tdp", "outputs", "length"},
	TypeMainboard: {"socket", "chipset", "form_factor", "memory_slots", "max_memory", "m2_slots", "wifi"},
	TypeRAM:       {"capacity", "type", "speed", "latency", "modules", "rgb"},
	TypeStorage:   {"capacity", "interface", "form_factor", "read_speed", "write_speed", "nand"},
	TypePSU:       {"wattage", "efficiency", "modular", "form_factor"},
	TypeCase:      {"form_factor", "supported_mainboards", "max_gpu_length", "fans_included", "side_panel"},
	TypeCooler:    {"type", "socket_support", "fan_size", "radiator_size", "tdp_rating"},
	TypeMonitor:   {"size", "resolution", "refresh_rate", "panel", "response_time", "ports"},
	TypeKeyboard:  {"layout", "switch", "connection", "backlight"},
	TypeMouse:     {"sensor", "dpi", "connection", "weight", "buttons"},
	TypeHeadset:   {"driver", "connection", "microphone", "surround"},
	TypeLaptop:    {"cpu", "gpu", "ram", "storage", "display", "battery", "weight", "os"},
	TypeAccessory: {"compatibility", "material"},
}
