// Package influxdb provides InfluxDB connectivity for the settings
// metrics feed.
//
// It wraps the official influxdb-client-go v2 library: connect with a
// ping, non-blocking batched writes, asynchronous error reporting.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WritePoint("setting_change", tags, fields, change.At)
//
// Batch size and flush interval come from the influxdb section of
// settingsd.yaml.
package influxdb
