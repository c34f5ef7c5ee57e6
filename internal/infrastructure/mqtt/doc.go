// Package mqtt provides MQTT client connectivity for the parkrunner core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//
// # Architecture
//
// The navigation core never talks to motors or sensors directly. The
// hardware bridge running on the brick publishes sensor state and answers
// drive requests over the broker:
//
//	parkrunner core ↔ MQTT broker ↔ ev3 bridge
//
// The same connection carries telemetry (events, actions, status) and the
// live steering tuning command topic.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllBridgeStates("ev3"), 1,
//	    func(topic string, payload []byte) error {
//	        log.Info("state", "topic", topic, "payload", string(payload))
//	        return nil
//	    })
//
// Topic names are built with Topics; see topics.go for the full tree.
package mqtt
