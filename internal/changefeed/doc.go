// Package changefeed fans persisted settings changes out to external sinks.
//
//   - Publisher sends the current value of each changed setting as a
//     retained MQTT message, so late subscribers see current state.
//   - Metrics writes a "setting_change" point to InfluxDB for every change.
//
// Both are settings.Observer implementations and are outbound only:
// nothing received from a broker or database ever modifies a setting.
package changefeed
