package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

func printSummary(w io.Writer, s entities.RunSummary) {
	fmt.Fprintf(w, "Run %s (%s)\n", s.ID, s.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "  Documents: %d (%d failed)\n", s.Documents, s.DocumentsFailed)
	fmt.Fprintf(w, "  Chunks:    %d total, %d accepted, %d cached, %d failed\n",
		s.ChunksTotal, s.ChunksAccepted, s.ChunksCached, s.ChunksFailed)
	fmt.Fprintf(w, "  Records:   %d accepted, %d rejected, %d below threshold\n",
		s.RecordsAccepted, s.RecordsRejected, s.RecordsFiltered)

	for i, f := range s.Failures {
		if i == maxListedProblems {
			fmt.Fprintf(w, "  ... and %d more failures\n", len(s.Failures)-i)
			break
		}
		detail := f.Err
		if detail == "" && len(f.Violations) > 0 {
			detail = strings.Join(f.Violations, "; ")
		}
		fmt.Fprintf(w, "  ! %s chunk %d after %d attempts: %s\n", f.SourceID, f.Chunk, f.Attempts, detail)
	}
}

func printReport(w io.Writer, r entities.QualityReport) {
	fmt.Fprintf(w, "Resolution: %d entities (%d stubs), %d/%d references resolved, link quality %.1f%%\n",
		r.Entities, r.Stubs, r.Resolved, r.References, r.LinkQuality*100)
	if r.MirroredEdges > 0 {
		fmt.Fprintf(w, "  Mirrored edges: %d\n", r.MirroredEdges)
	}
	if r.Warnings > 0 {
		fmt.Fprintf(w, "  Ambiguous references: %d\n", r.Warnings)
	}
}

func printWarnings(w io.Writer, warnings []entities.ResolutionWarning) {
	for i, warn := range warnings {
		if i == maxListedProblems {
			fmt.Fprintf(w, "  ... and %d more\n", len(warnings)-i)
			return
		}
		fmt.Fprintf(w, "  ~ %s\n", warn)
	}
}

func printErrors(w io.Writer, title string, errs []error) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintf(w, "%s (%d):\n", title, len(errs))
	for i, err := range errs {
		if i == maxListedProblems {
			fmt.Fprintf(w, "  ... and %d more\n", len(errs)-i)
			return
		}
		fmt.Fprintf(w, "  - %v\n", err)
	}
}
