/*
Package ports defines the driven ports (interfaces) of the guided session engine.

These interfaces decouple the engine from content storage, profile persistence,
the generative backends and the audio device, so each can be swapped (memory,
redis, loam, gemini) or faked in tests.

# Key Interfaces

  - Catalog: Supplies exercises (ordered steps plus metadata), read-only.
  - ProgressReporter: Receives Exited and Completed reports.
  - ProfileStore: Persists opaque profile records.
  - Synthesizer / Illustrator / Answerer: The narration, visual and Q&A backends.
  - AudioOutput: The single shared playback context.
  - Scheduler: Timers, so tests can drive time deterministically.
  - DistributedLocker: Coordinates profile writes across replicas.
*/
package ports
