// Command cborcat inspects, validates, and produces CBOR data items from
// the command line: decode to diagnostic notation, validate well-formedness
// under an optional strict mode, or encode a JSON document to canonical
// CBOR bytes.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/sparrowcbor/cbor"
)

// CLI is a minimal, flat kong.CLI: one top-level struct, subcommands as
// tagged fields with their own Run method.
type CLI struct {
	Decode   DecodeCmd   `cmd:"" help:"Decode CBOR input and print its diagnostic notation."`
	Validate ValidateCmd `cmd:"" help:"Check that input is a single well-formed CBOR data item."`
	Encode   EncodeCmd   `cmd:"" help:"Encode a JSON document to canonical CBOR bytes."`
}

type inputOpts struct {
	Input  string `arg:"" optional:"" help:"Input file; reads stdin if omitted"`
	Hex    bool   `help:"Treat input bytes as hex text rather than raw binary" default:"true" negatable:""`
	Strict bool   `help:"Reject non-canonical encodings and tags absent from the registry"`
}

func (o inputOpts) readBytes() ([]byte, error) {
	raw, err := readAll(o.Input)
	if err != nil {
		return nil, err
	}
	if !o.Hex {
		return raw, nil
	}
	trimmed := trimHexWhitespace(raw)
	decoded, err := hex.DecodeString(string(trimmed))
	if err != nil {
		return nil, fmt.Errorf("decode hex input: %w", err)
	}
	return decoded, nil
}

func (o inputOpts) readerOptions() cbor.ReaderOptions {
	return cbor.ReaderOptions{StrictMode: o.Strict}
}

// DecodeCmd prints the diagnostic-notation rendering of the first data
// item in the input.
type DecodeCmd struct {
	inputOpts
}

func (c *DecodeCmd) Run() error {
	data, err := c.readBytes()
	if err != nil {
		return err
	}
	v, n, err := cbor.DecodeValue(data, c.readerOptions())
	if err != nil {
		return err
	}
	fmt.Println(v.String())
	if n != len(data) {
		fmt.Fprintf(os.Stderr, "cborcat: %d trailing byte(s) after first item\n", len(data)-n)
	}
	return nil
}

// ValidateCmd reports whether the input is exactly one well-formed CBOR
// data item with no trailing bytes.
type ValidateCmd struct {
	inputOpts
}

func (c *ValidateCmd) Run() error {
	data, err := c.readBytes()
	if err != nil {
		return err
	}
	_, n, err := cbor.DecodeValue(data, c.readerOptions())
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("trailing %d byte(s) after the first well-formed item", len(data)-n)
	}
	fmt.Println("ok")
	return nil
}

// EncodeCmd reads a JSON document and re-encodes it as canonical CBOR,
// printed as hex by default.
type EncodeCmd struct {
	Input     string `arg:"" optional:"" help:"Input JSON file; reads stdin if omitted"`
	Canonical bool   `help:"Use the Canonical Encoder" default:"true" negatable:""`
	Hex       bool   `help:"Print output as hex text rather than raw binary" default:"true" negatable:""`
}

func (c *EncodeCmd) Run() error {
	raw, err := readAll(c.Input)
	if err != nil {
		return err
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("parse JSON input: %w", err)
	}
	v, err := jsonToValue(decoded)
	if err != nil {
		return err
	}
	out, err := cbor.EncodeValue(v, cbor.EncodeOptions{Canonical: c.Canonical})
	if err != nil {
		return err
	}
	if c.Hex {
		fmt.Println(hex.EncodeToString(out))
		return nil
	}
	_, err = os.Stdout.Write(out)
	return err
}

// jsonToValue maps the handful of shapes encoding/json produces for a
// decoded any (nil, bool, float64, string, []any, map[string]any) onto the
// Value model. This is a CLI-only convenience, distinct from and much
// narrower than the reflection bridge's struct-aware mapping.
func jsonToValue(x any) (cbor.Value, error) {
	switch t := x.(type) {
	case nil:
		return cbor.NewSimple(cbor.SimpleNull), nil
	case bool:
		if t {
			return cbor.NewSimple(cbor.SimpleTrue), nil
		}
		return cbor.NewSimple(cbor.SimpleFalse), nil
	case string:
		return cbor.NewTextString(t), nil
	case float64:
		if t == float64(int64(t)) {
			n := int64(t)
			if n >= 0 {
				return cbor.NewUnsigned(uint64(n)), nil
			}
			return cbor.NewNegative(n), nil
		}
		return cbor.NewFloat64(t), nil
	case []any:
		items := make([]cbor.Value, len(t))
		for i, e := range t {
			v, err := jsonToValue(e)
			if err != nil {
				return cbor.Value{}, err
			}
			items[i] = v
		}
		return cbor.NewArray(items), nil
	case map[string]any:
		entries := make([]cbor.MapEntry, 0, len(t))
		for k, e := range t {
			v, err := jsonToValue(e)
			if err != nil {
				return cbor.Value{}, err
			}
			entries = append(entries, cbor.MapEntry{Key: cbor.NewKey(cbor.NewTextString(k)), Value: v})
		}
		return cbor.NewMap(entries), nil
	default:
		return cbor.Value{}, fmt.Errorf("cborcat: unsupported JSON value %T", x)
	}
}

func readAll(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func trimHexWhitespace(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			out = append(out, c)
		}
	}
	return out
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("cborcat"),
		kong.Description("Inspect, validate, and produce CBOR data items."),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
