// Package engine is the context object that owns one animation runtime.
//
// An Engine is built from a host stage and a Config. It registers the
// built-in effect plugins, applies default variants, and wires the queue,
// coordinator and performance monitor together:
//
//	stage, _ := host.LoadStage("configs/stage.yaml")
//	eng, err := engine.New(engine.Config{FrameInterval: time.Second / 60}, stage, log)
//	eng.OnEvent(hub.BroadcastEvent)
//	go eng.Run(ctx)
//
// Run owns the master clock. Every frame the monitor counts a frame and
// the queue advances its active timelines; the retry processor and CPU
// sampler run alongside until the context is cancelled.
package engine
