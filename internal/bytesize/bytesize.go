// Package bytesize parses sizes such as "64KiB" or "1MB" in configuration.
package bytesize

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteSize is a size in bytes. It unmarshals from plain numbers or from
// a number followed by a decimal (K, KB, M, MB, G, GB) or binary
// (Ki, KiB, Mi, MiB, Gi, GiB) unit, case-insensitively.
type ByteSize uint64

const (
	B  ByteSize = 1
	KB ByteSize = 1000
	MB ByteSize = 1000 * KB
	GB ByteSize = 1000 * MB

	KiB ByteSize = 1024
	MiB ByteSize = 1024 * KiB
	GiB ByteSize = 1024 * MiB
)

// Longest suffixes first so "kib" is not read as "b".
var units = []struct {
	suffix string
	size   ByteSize
}{
	{"kib", KiB}, {"mib", MiB}, {"gib", GiB},
	{"ki", KiB}, {"mi", MiB}, {"gi", GiB},
	{"kb", KB}, {"mb", MB}, {"gb", GB},
	{"k", KB}, {"m", MB}, {"g", GB},
	{"b", B},
}

// Parse converts s to a ByteSize.
func Parse(s string) (ByteSize, error) {
	str := strings.ToLower(strings.TrimSpace(s))
	if str == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	mult := B
	for _, u := range units {
		if rest, ok := strings.CutSuffix(str, u.suffix); ok {
			str, mult = strings.TrimSpace(rest), u.size
			break
		}
	}

	if n, err := strconv.ParseUint(str, 10, 64); err == nil {
		return ByteSize(n) * mult, nil
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid byte size %q", s)
	}
	return ByteSize(f * float64(mult)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *ByteSize) UnmarshalText(text []byte) error {
	size, err := Parse(string(text))
	if err != nil {
		return err
	}
	*b = size
	return nil
}

// MarshalText writes the exact size, in the largest binary unit that
// divides it.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b ByteSize) String() string {
	switch {
	case b == 0:
		return "0"
	case b%GiB == 0:
		return strconv.FormatUint(uint64(b/GiB), 10) + "GiB"
	case b%MiB == 0:
		return strconv.FormatUint(uint64(b/MiB), 10) + "MiB"
	case b%KiB == 0:
		return strconv.FormatUint(uint64(b/KiB), 10) + "KiB"
	default:
		return strconv.FormatUint(uint64(b), 10)
	}
}

// Int64 returns b as an int64.
func (b ByteSize) Int64() int64 { return int64(b) }
