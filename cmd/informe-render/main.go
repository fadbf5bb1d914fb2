// Command informe-render renders one report without running the HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"informe/internal/domain"
	"informe/internal/infra/chrome"
	"informe/internal/infra/fontconfig"
	"informe/internal/infra/logging"
	"informe/internal/render"
	"informe/internal/report"
)

const defaultTimeout = 30 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	fields     map[string]*string
	font       string
	htmlOnly   bool
	outPath    string
	chromePath string
	noSandbox  bool
	timeout    time.Duration
	probe      bool
	listFonts  bool
	verbose    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{fields: map[string]*string{}}
	flags := pflag.NewFlagSet("informe-render", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	opts.fields[domain.FieldName.Key] = flags.StringP("name", "n", "", "Apellido y Nombre")
	opts.fields[domain.FieldIdentifier.Key] = flags.String("identifier", "", "DNI")
	opts.fields[domain.FieldEmail.Key] = flags.String("email", "", "Email")
	opts.fields[domain.FieldPhone.Key] = flags.String("phone", "", "Teléfono")
	opts.fields[domain.FieldAddress.Key] = flags.String("address", "", "Dirección")
	opts.fields[domain.FieldMessage.Key] = flags.StringP("message", "m", "", "Mensaje")
	flags.StringVarP(&opts.font, "font", "f", "calibri", "Font selector: calibri|carlito")
	flags.BoolVar(&opts.htmlOnly, "html", false, "Write the HTML document instead of a PDF")
	flags.StringVarP(&opts.outPath, "output", "o", "", "Output file (default informe.pdf, or stdout with --html)")
	flags.StringVar(&opts.chromePath, "chrome-path", os.Getenv("CHROME_BIN"), "Chrome binary")
	flags.BoolVar(&opts.noSandbox, "no-sandbox", false, "Disable the Chrome sandbox")
	flags.DurationVar(&opts.timeout, "timeout", defaultTimeout, "Overall rendering timeout")
	flags.BoolVar(&opts.probe, "probe", false, "Probe the selected font in Chrome and exit")
	flags.BoolVar(&opts.listFonts, "list-fonts", false, "List font families installed on the host and exit")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", flags.Args())
	}
	if opts.timeout <= 0 {
		return nil, errors.New("--timeout must be positive")
	}
	return opts, nil
}

func (o *options) request() domain.ReportRequest {
	return domain.NewReportRequest(func(key string) (string, bool) {
		v, ok := o.fields[key]
		if !ok {
			return "", false
		}
		return *v, true
	}, domain.ParseFontChoice(o.font))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}
	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logging.UseConsole(stderr, level)

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	if opts.listFonts {
		families, err := fontconfig.Families(ctx, fontconfig.ExecLister)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		for _, f := range families {
			fmt.Fprintln(stdout, f)
		}
		return 0
	}

	req := opts.request()
	fonts := domain.DefaultFontSet
	engine := chrome.NewEngine(chrome.Options{ExecPath: opts.chromePath, NoSandbox: opts.noSandbox})

	if opts.probe {
		ok := render.NewFontProber(engine, opts.timeout).Probe(ctx, fonts.Name(req.Font))
		fmt.Fprintln(stdout, fonts.ProbeMessage(req.Font, ok))
		return 0
	}

	doc, err := report.MustRenderer().Render(req, fonts.Family(req.Font))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if opts.htmlOnly {
		return write(opts.outPath, doc.Bytes(), stdout, stderr)
	}

	art, err := render.NewPDFRenderer(engine, render.Options{Verify: true}).ToPDF(ctx, render.FromDocument(doc))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	out := opts.outPath
	if out == "" {
		out = "informe.pdf"
	}
	return write(out, art.Bytes(), stdout, stderr)
}

// write sends data to path, or to stdout when path is empty or "-".
func write(path string, data []byte, stdout, stderr io.Writer) int {
	if path == "" || path == "-" {
		if _, err := stdout.Write(data); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}
