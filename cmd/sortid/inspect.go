package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/sxyafiq/sortid"
	"github.com/sxyafiq/sortid/ksuid"
	"github.com/sxyafiq/sortid/tsid"
	"github.com/sxyafiq/sortid/ulid"
)

// decimal is the alphabet of the fixed-length, zero-padded decimal form.
var decimal = sortid.MustAlphabet("0123456789")

// identifier is a decoded identifier of any kind.
type identifier struct {
	kind    string
	text    string
	raw     []byte
	epoch   time.Time
	layout  sortid.BitLayout
	fields  sortid.Fields
	created time.Time
}

// decode parses s as kind, or detects the kind from the length of s when kind is
// empty. nodeBits splits the TSID random field.
func decode(s, kind string, nodeBits int) (identifier, error) {
	if kind == "" {
		switch len(s) {
		case tsid.EncodedLen:
			kind = kindTSID
		case ulid.EncodedLen:
			kind = kindULID
		case ksuid.EncodedLen:
			kind = kindKSUID
		default:
			return identifier{}, sortid.NewFormatError(s, -1, fmt.Errorf("%w: %d symbols matches no kind (tsid %d, ulid %d, ksuid %d)",
				sortid.ErrInvalidLength, len(s), tsid.EncodedLen, ulid.EncodedLen, ksuid.EncodedLen))
		}
	}
	if err := checkKind(kind); err != nil {
		return identifier{}, err
	}

	switch kind {
	case kindTSID:
		if nodeBits < 0 || nodeBits > sortid.MaxNodeBits {
			return identifier{}, fmt.Errorf("--node-bits must be 0-%d, got %d", sortid.MaxNodeBits, nodeBits)
		}
		id, err := tsid.Parse(s)
		if err != nil {
			return identifier{}, err
		}
		b := id.Bytes()
		return identifier{
			kind: kind, text: id.String(), raw: b[:], epoch: tsid.Epoch,
			layout: tsid.Layout(nodeBits), fields: id.Fields(nodeBits), created: id.Time(),
		}, nil

	case kindULID:
		id, err := ulid.Parse(s)
		if err != nil {
			return identifier{}, err
		}
		return identifier{
			kind: kind, text: id.String(), raw: id.Bytes(), epoch: ulid.Epoch,
			layout: ulid.Layout, fields: id.Fields(), created: id.Time(),
		}, nil

	default:
		id, err := ksuid.Parse(s)
		if err != nil {
			return identifier{}, err
		}
		return identifier{
			kind: kind, text: id.String(), raw: id.Bytes(), epoch: ksuid.Epoch,
			layout: ksuid.Layout, fields: ksuid.Layout.Decompose(id.Bytes()), created: id.Time(),
		}, nil
	}
}

// ============================================================================
// Parse Command
// ============================================================================

func (a *app) newParseCmd() *cobra.Command {
	var (
		kind     string
		nodeBits int
	)
	cmd := &cobra.Command{
		Use:     "parse <id>",
		Aliases: []string{"p", "inspect"},
		Short:   "Parse and inspect an identifier",
		Long:    "Parse an identifier and print its components. The kind is detected from the length unless --kind is given.",
		Example: `  sortid parse 0AWQ4J7ZR1FGE
  sortid parse 0AWQ4J7ZR1FGE --node-bits 10
  sortid parse 01HF8Z2K7Q5V3N4M6P8R9S0T1W`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := decode(args[0], kind, nodeBits)
			if err != nil {
				return err
			}
			a.printIdentifier(id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Identifier kind: tsid|ulid|ksuid (default: detect)")
	cmd.Flags().IntVar(&nodeBits, "node-bits", 0, "TSID node field width used to split node and counter")
	return cmd
}

func (a *app) printIdentifier(id identifier) {
	unit := "ms"
	if id.layout.TimeUnit == time.Second {
		unit = "s"
	}

	fmt.Fprintf(a.out, "Kind:       %s (%d bits)\n", id.kind, id.layout.TotalBits)
	fmt.Fprintf(a.out, "ID:         %s\n", id.text)
	fmt.Fprintf(a.out, "\n")
	fmt.Fprintf(a.out, "Components:\n")
	fmt.Fprintf(a.out, "  Time:     %s\n", id.created.UTC().Format(time.RFC3339Nano))
	fmt.Fprintf(a.out, "  Units:    %d %s since %s\n", id.fields.Time, unit, id.epoch.UTC().Format(time.RFC3339))
	if id.layout.NodeBits > 0 {
		fmt.Fprintf(a.out, "  Node:     %d (%d bits)\n", id.fields.Node, id.layout.NodeBits)
	}
	counter := make([]byte, (id.layout.CounterBits()+7)/8)
	id.fields.Counter.PutBytes(counter)
	fmt.Fprintf(a.out, "  Random:   %s (%d bits)\n", hex.EncodeToString(counter), id.layout.CounterBits())
	fmt.Fprintf(a.out, "\n")
	fmt.Fprintf(a.out, "Encodings:\n")
	fmt.Fprintf(a.out, "  Hex:      %s\n", hex.EncodeToString(id.raw))
	fmt.Fprintf(a.out, "  Decimal:  %s\n", encodeWith(decimal, id))
	if id.kind != kindKSUID {
		fmt.Fprintf(a.out, "  Lower:    %s\n", strings.ToLower(id.text))
	}
	if id.kind == kindULID {
		u, _ := ulid.FromBytes(id.raw)
		fmt.Fprintf(a.out, "  UUID:     %s\n", u.UUID())
	}
	fmt.Fprintf(a.out, "\n")
	fmt.Fprintf(a.out, "Age:        %v\n", time.Since(id.created).Round(time.Millisecond))
}

func encodeWith(alphabet *sortid.Alphabet, id identifier) string {
	return sortid.MustCodec(alphabet, id.layout.TotalBits).EncodeToString(id.raw)
}

// ============================================================================
// Convert Command
// ============================================================================

func (a *app) newConvertCmd() *cobra.Command {
	var kind, to string
	cmd := &cobra.Command{
		Use:     "convert <id>",
		Aliases: []string{"encode", "enc"},
		Short:   "Convert an identifier to another representation",
		Long: `Convert an identifier to another representation.

Formats:
  upper, lower    Canonical string form (lower is Crockford kinds only)
  hex             Big-endian bytes in hexadecimal
  bytes           Big-endian bytes as a Go byte list
  dec             Zero-padded decimal, sorts like the identifier
  int             Signed 64-bit integer as stored in BIGINT columns (tsid only)
  crockford       Crockford base32 at the identifier's width
  base62          Base62 at the identifier's width
  uuid            UUID string (ulid only)`,
		Example: `  sortid convert 0AWQ4J7ZR1FGE --to int
  sortid convert 01HF8Z2K7Q5V3N4M6P8R9S0T1W --to uuid`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := decode(args[0], kind, 0)
			if err != nil {
				return err
			}
			out, err := convert(id, to)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Identifier kind: tsid|ulid|ksuid (default: detect)")
	cmd.Flags().StringVarP(&to, "to", "t", "hex", "Output format")
	return cmd
}

func convert(id identifier, format string) (string, error) {
	switch strings.ToLower(format) {
	case "upper", "string":
		return id.text, nil
	case "lower":
		if id.kind == kindKSUID {
			return "", errors.New("ksuid has no lower-case form: Base62 is case-sensitive")
		}
		return strings.ToLower(id.text), nil
	case "hex", "x":
		return hex.EncodeToString(id.raw), nil
	case "bytes":
		return fmt.Sprint(id.raw), nil
	case "dec", "decimal":
		return encodeWith(decimal, id), nil
	case "int":
		if id.kind != kindTSID {
			return "", fmt.Errorf("int is only defined for tsid, not %s", id.kind)
		}
		v, _ := tsid.FromBytes(id.raw)
		return fmt.Sprint(v.Int64()), nil
	case "crockford", "base32", "b32":
		return encodeWith(sortid.Crockford32, id), nil
	case "base62", "b62":
		return encodeWith(sortid.Base62, id), nil
	case "uuid":
		if id.kind != kindULID {
			return "", fmt.Errorf("uuid is only defined for ulid, not %s", id.kind)
		}
		u, _ := ulid.FromBytes(id.raw)
		return u.UUID().String(), nil
	}
	return "", fmt.Errorf("unknown format %q", format)
}

// ============================================================================
// Validate Command
// ============================================================================

func (a *app) newValidateCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:     "validate <id>...",
		Aliases: []string{"val"},
		Short:   "Validate identifiers",
		Long:    "Validate identifiers. Exits with status 1 if any identifier is invalid.",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			invalid := 0
			for _, s := range args {
				id, err := decode(s, kind, 0)
				if err != nil {
					invalid++
					fmt.Fprintf(a.out, "INVALID  %s  %v\n", s, err)
					if fe, ok := sortid.GetFormatError(err); ok && fe.Position >= 0 {
						fmt.Fprintf(a.out, "         %s^\n", strings.Repeat(" ", fe.Position))
					}
					continue
				}
				fmt.Fprintf(a.out, "VALID    %s  %s %s\n", s, id.kind, id.created.UTC().Format(time.RFC3339Nano))
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d identifiers invalid", invalid, len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Identifier kind: tsid|ulid|ksuid (default: detect)")
	return cmd
}
