package pipeline

import (
	"context"
	"io"

	"github.com/nao1215/passkeydir/internal/model"
	"github.com/nao1215/passkeydir/internal/report"
)

// Run loads the domain list at inputPath, enriches every domain, and writes
// the records to outputPath as pretty-printed JSON, replacing any previous
// file. The output is written once, after all domains have been processed.
//
// The returned error is a *FatalInputError when the input cannot be loaded;
// the records are returned even when writing the output fails.
func Run(ctx context.Context, bp *BatchProcessor, inputPath, outputPath string) ([]model.DomainRecord, error) {
	domains, err := LoadDomains(inputPath)
	if err != nil {
		return nil, err
	}

	records := bp.Process(ctx, domains)

	newJSON := func(w io.Writer) report.Writer {
		return report.NewJSONWriter(w, report.WithPrettyPrint())
	}
	if err := report.WriteFile(outputPath, records, newJSON); err != nil {
		return records, err
	}
	return records, nil
}
