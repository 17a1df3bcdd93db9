// Package mqtt provides the publish-only MQTT connection behind the
// settings change feed.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Retained publishing of per-setting state
//   - Last Will and Testament (LWT) for offline detection
//
// Topic layout:
//
//	<prefix>/settings/<name>     {"name":...,"type":...,"value":...}
//	<prefix>/settingsd/status    {"status":"online"|"offline",...}
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := client.Topics().Setting("ForcePMKID")
//	err = client.PublishRetained(topic, payload)
//
// TLS (cfg.Broker.TLS) should be enabled for any broker off the device.
package mqtt
