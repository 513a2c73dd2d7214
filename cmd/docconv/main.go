// Command docconv converts documents between the text and binary wire
// formats. It reads one document from stdin and writes it to stdout;
// diagnostics go to stderr.
//
//	docconv --from text --to binary < payload.jsonc > payload.bson
//	docconv --from binary --indent "  " < payload.bson
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/calumari/docwire"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type config struct {
	from            string
	to              string
	indent          string
	trim            bool
	extended        bool
	nullUnsupported bool
	verbose         bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var cfg config

	flagSet := pflag.NewFlagSet("docconv", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&cfg.from, "from", "text", "input format: text or binary")
	flagSet.StringVar(&cfg.to, "to", "text", "output format: text or binary")
	flagSet.StringVar(&cfg.indent, "indent", "", "indent text output with this string")
	flagSet.BoolVar(&cfg.trim, "trim", false, "trim white space around decoded strings")
	flagSet.BoolVar(&cfg.extended, "extended", false, "decode Extended JSON wrappers such as {\"$numberLong\": \"1\"}")
	flagSet.BoolVar(&cfg.nullUnsupported, "null-unsupported", false, "write null for values with no mapping instead of failing")
	flagSet.BoolVarP(&cfg.verbose, "verbose", "v", false, "log debug diagnostics")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	bridge := docwire.NewBridge()
	defer bridge.AttachLogger(logger)()

	opts, err := cfg.options(bridge)
	if err != nil {
		return err
	}

	doc, err := decode(cfg.from, stdin, opts)
	if err != nil {
		return fmt.Errorf("decode %s: %w", cfg.from, err)
	}
	logger.Debug("decoded document", "format", cfg.from, "entries", doc.Len())

	if err := encode(cfg.to, stdout, doc, opts); err != nil {
		return fmt.Errorf("encode %s: %w", cfg.to, err)
	}
	return nil
}

func (cfg config) options(bridge *docwire.Bridge) ([]docwire.Option, error) {
	opts := []docwire.Option{docwire.WithBridge(bridge)}
	if cfg.indent != "" {
		opts = append(opts, docwire.WithIndent(cfg.indent))
	}
	if cfg.trim {
		opts = append(opts, docwire.WithTrimStrings())
	}
	if cfg.nullUnsupported {
		opts = append(opts, docwire.WithUnsupportedPolicy(docwire.PolicySubstituteNull))
	}
	if cfg.extended {
		registry, err := docwire.NewRegistry(docwire.Extended())
		if err != nil {
			return nil, err
		}
		opts = append(opts, docwire.WithRegistry(registry))
	}
	return opts, nil
}

func decode(format string, r io.Reader, opts []docwire.Option) (*docwire.Document, error) {
	switch format {
	case "text":
		return docwire.NewTextCodec(opts...).DecodeDocument(r)
	case "binary":
		return docwire.NewBinaryCodec(opts...).Decode(r)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func encode(format string, w io.Writer, doc *docwire.Document, opts []docwire.Option) error {
	switch format {
	case "text":
		return docwire.NewTextCodec(opts...).EncodeDocument(w, doc)
	case "binary":
		return docwire.NewBinaryCodec(opts...).Encode(w, doc)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
