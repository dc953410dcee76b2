// Package reading holds sensor observations: the Reading type, the decoder
// for inbound sensor messages, and the append-only SQLite store.
//
// Readings are never updated or deleted. Recent returns them newest first by
// insertion order, which may differ from timestamp order when publishers
// send late data.
//
//	store := reading.NewStore(db.DB)
//	r, err := store.Append(ctx, reading.Reading{SensorID: "bedroom", Metric: reading.MetricTemperature, Value: 21.4})
//	var storeErr *reading.StoreError
//	if errors.As(err, &storeErr) {
//	    // the reading was not stored
//	}
//	latest, err := store.Recent(ctx, "bedroom", 10)
package reading
