package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: princectl <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert HTML, XML or Markdown files to PDF")
	fmt.Fprintln(w, "  config     Print the effective configuration as YAML")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'princectl help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: princectl convert <input>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert documents to PDF, or to page images with --raster-format.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    .html, .htm, .xhtml, .xml, .md or .markdown file, directory,")
	fmt.Fprintln(w, "           or http(s) URL (URLs require --output)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file, directory, or - for stdout")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --env-file <path>     Dotenv file (default .env)")
	fmt.Fprintln(w, "  -i, --input <type>        Input type for html/xml files: auto, html, xml")
	fmt.Fprintln(w, "      --baseurl <url>       Base URL for relative links")
	fmt.Fprintln(w, "      --highlight-style <s> Code highlighting style for Markdown")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Engine:")
	fmt.Fprintln(w, "  -e, --engine <path>       Engine executable (default: prince in PATH)")
	fmt.Fprintln(w, "  -m, --mode <s>            control (long-lived sessions) or oneshot")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel engine processes (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-document timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --license-file <path> Engine license file")
	fmt.Fprintln(w, "      --license-key <s>     Engine license key")
	fmt.Fprintln(w, "      --fail-safe           Fail instead of producing a degraded document")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Network:")
	fmt.Fprintln(w, "      --no-network          Disable network access")
	fmt.Fprintln(w, "      --insecure            Do not verify TLS certificates")
	fmt.Fprintln(w, "      --http-proxy <url>    Proxy for HTTP requests")
	fmt.Fprintln(w, "      --http-timeout <n>    HTTP timeout in seconds")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "  -s, --style <path>        Stylesheet path or URL (repeatable)")
	fmt.Fprintln(w, "      --script <path>       Script path or URL (repeatable)")
	fmt.Fprintln(w, "      --javascript          Run document scripts")
	fmt.Fprintln(w, "      --media <s>           CSS media type (default: print)")
	fmt.Fprintln(w, "  -p, --page-size <s>       Page size, e.g. A4 or letter (oneshot mode)")
	fmt.Fprintln(w, "      --page-margin <s>     Page margin, e.g. 20mm (oneshot mode)")
	fmt.Fprintln(w, "      --no-author-style     Ignore document stylesheets")
	fmt.Fprintln(w, "      --no-default-style    Ignore the engine default stylesheet")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "PDF:")
	fmt.Fprintln(w, "      --pdf-profile <s>     Profile, e.g. PDF/A-3b or PDF/UA-1")
	fmt.Fprintln(w, "      --pdf-lang <s>        Document language")
	fmt.Fprintln(w, "      --tagged-pdf          Produce a tagged PDF")
	fmt.Fprintln(w, "      --pdf-title <s>       Document title")
	fmt.Fprintln(w, "      --pdf-subject <s>     Document subject")
	fmt.Fprintln(w, "      --pdf-author <s>      Document author")
	fmt.Fprintln(w, "      --pdf-keywords <s>    Document keywords")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Raster:")
	fmt.Fprintln(w, "      --raster-format <s>   Write a page image instead of a PDF: png, jpeg")
	fmt.Fprintln(w, "      --raster-page <n>     Page to rasterize (default 1)")
	fmt.Fprintln(w, "      --raster-dpi <n>      Raster resolution")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed timing and engine output")
	fmt.Fprintln(w, "      --log-level <s>       trace, debug, info, warn, error")
	fmt.Fprintln(w, "      --log-format <s>      console, json")
	fmt.Fprintln(w, "      --metrics-file <path> Write prometheus metrics when done")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  PRINCECTL_CONFIG, PRINCECTL_ENGINE, PRINCECTL_MODE, PRINCECTL_WORKERS,")
	fmt.Fprintln(w, "  PRINCECTL_TIMEOUT, PRINCECTL_LOG_LEVEL, PRINCECTL_LOG_FORMAT,")
	fmt.Fprintln(w, "  PRINCECTL_LICENSE_FILE, PRINCECTL_LICENSE_KEY, PRINCECTL_OUTPUT_DIR,")
	fmt.Fprintln(w, "  PRINCECTL_HTTP_PROXY, PRINCECTL_NO_NETWORK")
	fmt.Fprintln(w, "  Flags override environment, which overrides the config file.")
}

// printConfigUsage prints usage for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: princectl config [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the configuration after merging the config file and environment.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --env-file <path>     Dotenv file (default .env)")
}

// printVersionUsage prints usage for the version command.
func printVersionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: princectl version [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Show version information. With --engine, also start a control")
	fmt.Fprintln(w, "session and print the version the engine reports.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -e, --engine <path>       Engine executable to query")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "config":
		printConfigUsage(env.Stdout)
	case "version":
		printVersionUsage(env.Stdout)
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: princectl help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
