package app

import (
	"fmt"
	"io"
)

// digestWidth is how many hex digits of a digest the summary shows.
const digestWidth = 12

// printSummary writes one line per run followed by its findings, e.g.
//
//	ok    RUN_ID_01  3fa9c0e1d2b4  0 errors, 1 warning
//	      warning .: #if chain selected no branch [unmatched-conditional] (lpjml.cjson:7)
func printSummary(w io.Writer, results []*Result, strict bool) {
	width := 0
	for _, res := range results {
		width = max(width, len(res.Name))
	}

	for _, res := range results {
		status := "ok"
		if res.Failed(strict) {
			status = "FAIL"
		}
		if res.Err != nil {
			fmt.Fprintf(w, "%-4s  %-*s  %v\n", status, width, res.Name, res.Err)
			continue
		}

		digest := res.Digest
		if len(digest) > digestWidth {
			digest = digest[:digestWidth]
		}
		errs, warns := res.Report.Errors(), res.Report.Warnings()
		fmt.Fprintf(w, "%-4s  %-*s  %s  %d %s, %d %s\n", status, width, res.Name, digest,
			errs, plural(errs, "error"), warns, plural(warns, "warning"))
		for _, f := range res.Report.Findings {
			fmt.Fprintf(w, "      %s\n", f)
		}
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
