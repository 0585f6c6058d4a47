// Package mqtt provides MQTT client connectivity for Gray Logic Motion.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) on motion/system/status
//
// # Topics
//
//	motion/command/<action>   inbound coordinator commands (JSON)
//	motion/result             command outcomes
//	motion/event/<type>       queue lifecycle events
//	motion/mutation/<handle>  stage property writes
//	motion/performance        frame rate samples
//	motion/system/status      retained online/offline status
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        action, _ := mqtt.CommandAction(topic)
//	        return handle(action, payload)
//	    })
//
// Handlers run on paho's goroutines. A panicking handler is recovered and
// logged; a returned error is logged at warn level.
package mqtt
