// Package mqtt provides MQTT connectivity for Gray Logic Audio.
//
// The broker is an optional command bus: home automation rules publish
// audio commands to graylogic/audio/command/{action} and read speaker
// state back from retained graylogic/audio/state/{host} topics. When
// mqtt.enabled is false the service runs with the HTTP API alone.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Last Will and Testament on graylogic/system/status
//   - Publishing with validation and timeouts
//   - Subscriptions that survive reconnects
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllAudioCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        return handle(topic, payload)
//	    })
package mqtt
