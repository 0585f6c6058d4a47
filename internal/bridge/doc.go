// Package bridge connects the motion engine to MQTT.
//
// Inbound, JSON commands on motion/command/<action> are executed through the
// coordinator and answered on motion/result. The special action "batch"
// runs a coordinated sequence.
//
// Outbound, the bridge publishes queue lifecycle events on
// motion/event/<type>, performance samples on motion/performance and,
// when enabled, every stage property write on motion/mutation/<handle> so a
// remote renderer can follow along.
//
// Outbound traffic is produced on the frame loop. It goes through a
// bounded buffer drained by one publisher goroutine; messages that do not
// fit are dropped and counted.
package bridge
