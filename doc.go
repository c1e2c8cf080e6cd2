// Package resonance implements the musical data model and compiled-bundle
// contract shared by the DSL compiler, the macro/mapping resolver, the
// section/layer controller, the scheduler and the audio-thread runtime.
//
// Everything here is a plain value type: Beat, Event, Track, Section,
// Layer, Macro, Mapping and Bundle. The subsystems that turn DSL source
// into a Bundle (internal/compiler) and that turn a Bundle plus live
// control input into audio (internal/scheduler, internal/audioengine) live
// in internal/, since they are implementation, not the shared contract.
package resonance
