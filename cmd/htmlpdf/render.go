package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"htmlpdf/pkg/paginate"
	"htmlpdf/pkg/pdf"
	"htmlpdf/pkg/pdfgen"
	"htmlpdf/pkg/resource"
)

func newRenderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <input.html>...",
		Short: "Convert HTML files into one PDF document",
		Long: `Convert HTML files into one PDF document. Each input starts on a new
page and page numbers continue across inputs. Use - to read standard input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.render,
	}
	cmd.Flags().StringP("output", "o", "", "output file, - for standard output (default: first input with .pdf)")
	pageFlags(cmd.Flags())
	return cmd
}

// pageFlags are shared by every command that lays documents out.
func pageFlags(f *pflag.FlagSet) {
	f.String("page-size", pdfgen.A4.String(), "paper size: A3, A4, A5, A6, B4, B5, Letter, Legal, Tabloid, Ledger or Executive")
	f.Bool("landscape", false, "use landscape orientation")
	f.Float64("margin", pdfgen.DefaultMargin, "page margin on all sides, in points")
	for _, side := range []string{"top", "right", "bottom", "left"} {
		f.Float64("margin-"+side, pdfgen.DefaultMargin, "page margin on the "+side+", overrides --margin")
	}
	f.Float64("dpi", pdfgen.DefaultDPI, "resolution mapping CSS and image pixels to points")
	f.String("base-url", "", "URL relative references resolve against (default: the input file)")
	f.String("footer", "", "footer text for every page; {page} is replaced by the page number")
	f.Bool("repeat-headers", true, "repeat table header rows on continuation pages")
	f.String("root", "", "directory local resources must live in (default: the input's directory)")
	f.Bool("network", true, "fetch http and https resources")
	f.Duration("timeout", 30*time.Second, "timeout for each network request")
	f.Float64("rate-limit", 0, "maximum network requests per second, 0 for no limit")
	f.Int("prefetch", resource.DefaultPrefetchLimit, "resources loaded concurrently per document")
}

// pageConfig builds the conversion settings for one input.
func (a *app) pageConfig(input string) (*pdfgen.Config, error) {
	v := a.v
	cfg := pdfgen.NewConfig()

	size, ok := pdfgen.ParsePageSize(v.GetString("page-size"))
	if !ok {
		return nil, fmt.Errorf("unknown page size %q", v.GetString("page-size"))
	}
	cfg.PageSize = size
	if v.GetBool("landscape") {
		cfg.Orientation = pdfgen.Landscape
	}

	cfg.SetMargins(v.GetFloat64("margin"))
	setters := map[string]func(float64){
		"margin-top":    cfg.SetMarginTop,
		"margin-right":  cfg.SetMarginRight,
		"margin-bottom": cfg.SetMarginBottom,
		"margin-left":   cfg.SetMarginLeft,
	}
	for key, set := range setters {
		if v.IsSet(key) {
			set(v.GetFloat64(key))
		}
	}

	cfg.DPI = v.GetFloat64("dpi")
	cfg.Footer = v.GetString("footer")
	if !v.GetBool("repeat-headers") {
		cfg.HeaderPolicy = paginate.NoRepeat
	}

	dir, base, err := inputLocation(input)
	if err != nil {
		return nil, err
	}
	cfg.BaseURL = base
	if b := v.GetString("base-url"); b != "" {
		cfg.BaseURL = b
	}
	loader, err := a.loader(dir)
	if err != nil {
		return nil, err
	}
	cfg.Loader = loader
	return cfg, nil
}

// inputLocation returns the directory of input and a file: URL relative
// references in it resolve against. Standard input resolves against the
// working directory.
func inputLocation(input string) (dir, base string, err error) {
	if input == "-" {
		dir, err = os.Getwd()
		if err != nil {
			return "", "", err
		}
		return dir, fileURL(dir) + "/", nil
	}
	path, err := homedir.Expand(input)
	if err != nil {
		return "", "", err
	}
	path, err = filepath.Abs(path)
	if err != nil {
		return "", "", err
	}
	return filepath.Dir(path), fileURL(path), nil
}

func fileURL(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func (a *app) loader(dir string) (resource.Loader, error) {
	root := a.v.GetString("root")
	if root == "" {
		root = dir
	}
	root, err := homedir.Expand(root)
	if err != nil {
		return nil, err
	}
	mux := resource.Mux{Local: resource.FileLoader{Root: root}}
	if a.v.GetBool("network") {
		mux.Network = resource.NewHTTPLoader(
			resource.WithTimeout(a.v.GetDuration("timeout")),
			resource.WithRateLimit(a.v.GetFloat64("rate-limit"), 1))
	}
	return mux, nil
}

func (a *app) generator() *pdfgen.Generator {
	return pdfgen.New(
		pdfgen.WithLogger(a.logger),
		pdfgen.WithPrefetchLimit(a.v.GetInt("prefetch")))
}

// readInput returns the markup of input, decoded to UTF-8.
func readInput(cmd *cobra.Command, input string) (string, error) {
	var (
		data []byte
		err  error
	)
	if input == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		var path string
		path, err = homedir.Expand(input)
		if err == nil {
			data, err = os.ReadFile(path)
		}
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", input, err)
	}
	return resource.DecodeText(data, "text/html"), nil
}

func (a *app) render(cmd *cobra.Command, args []string) error {
	out := a.v.GetString("output")
	if out == "" {
		if args[0] == "-" {
			out = "-"
		} else {
			out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".pdf"
		}
	}

	gen := a.generator()
	doc := pdf.New()
	for _, input := range args {
		cfg, err := a.pageConfig(input)
		if err != nil {
			return err
		}
		markup, err := readInput(cmd, input)
		if err != nil {
			return err
		}
		before := doc.PageCount()
		if err := gen.Append(cmd.Context(), doc, markup, cfg); err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
		a.logger.Info("converted",
			zap.String("input", input),
			zap.Int("pages", doc.PageCount()-before))
	}

	if out == "-" {
		return doc.Save(cmd.OutOrStdout())
	}
	path, err := homedir.Expand(out)
	if err != nil {
		return err
	}
	if err := doc.WriteToFile(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d pages to %s\n", doc.PageCount(), path)
	return nil
}
