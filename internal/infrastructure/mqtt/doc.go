// Package mqtt provides MQTT client connectivity for the relay sequencer.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// MQTT is the sequencer's remote-control surface: external clients publish
// start/stop commands to relayseq/run/command, and the sequencer publishes
// run status, per-event notifications and termination results.
//
//	Clients ↔ MQTT Broker ↔ Relay Sequencer
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to run commands
//	err = client.Subscribe(mqtt.Topics{}.RunCommand(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish the current status, retained for late subscribers
//	client.Publish(mqtt.Topics{}.RunStatus(), statusJSON, 1, true)
package mqtt
