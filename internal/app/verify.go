package app

import (
	"weibo-harvest/internal/checksum"
	"weibo-harvest/internal/observability"
	"weibo-harvest/internal/storage"
)

// IntactRecords drops records whose stored checksum no longer matches their
// content. Rows written without a checksum are kept.
func IntactRecords(recs []*storage.PostRecord, logger *observability.Logger) []*storage.PostRecord {
	gen := checksum.NewGenerator()

	intact := make([]*storage.PostRecord, 0, len(recs))
	for _, rec := range recs {
		if rec.CheckSum != "" && !gen.Verify(rec.CheckSum, &rec.Post) {
			logger.Warn("Checksum mismatch, record skipped",
				"link", rec.Link,
				"checksum", rec.CheckSum,
			)
			continue
		}
		intact = append(intact, rec)
	}
	return intact
}
