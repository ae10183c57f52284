// Command htmlpdf converts HTML documents to PDF.
//
//	htmlpdf render report.html -o report.pdf --page-size letter
//	htmlpdf boxes report.html
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "htmlpdf:", err)
		os.Exit(1)
	}
}
