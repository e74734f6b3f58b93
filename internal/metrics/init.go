package metrics

// InitializeMetrics pre-populates label combinations so every series is
// exported from the first scrape.
func InitializeMetrics(gates, sources []string) {
	for _, g := range gates {
		GateLimit.WithLabelValues(g)
		GateInFlight.WithLabelValues(g)
		GateWaiting.WithLabelValues(g)
		AcquisitionDuration.WithLabelValues(g)
		AcquisitionsPending.WithLabelValues(g)
		AcquisitionLateCallbacks.WithLabelValues(g)
		NotificationsTotal.WithLabelValues(g)
		for _, status := range []string{"completed", "failed", "cancelled", "cached"} {
			AcquisitionsTotal.WithLabelValues(g, status)
		}
	}

	for _, s := range sources {
		ScansTotal.WithLabelValues(s, "success")
		ScansTotal.WithLabelValues(s, "error")
		ScanDuration.WithLabelValues(s)
		RawItemsEnumerated.WithLabelValues(s)
		StoredItems.WithLabelValues(s)
		for _, c := range []string{"single", "edited", "live", "edited_live"} {
			GroupedItems.WithLabelValues(s, c)
		}
	}

	for _, d := range []string{"vips", "imaging", "ffmpeg", "device"} {
		ThumbnailDecodeDuration.WithLabelValues(d)
	}

	for _, op := range []string{"save_items", "known_ids", "list_items", "max_id", "mark_downloaded", "stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
