/*
Package domain contains the core models of the guided session engine.

It defines the content a user walks through (Exercises made of Steps), the
cursor owned by the session controller, the gesture snapshot exposed to
renderers, narration and asset bookkeeping, and the reports handed to the
progress collaborator. This package is kept pure and free of I/O, following
Hexagonal Architecture principles.

# Key Entities

  - Step: One narrated, optionally illustrated unit of content.
  - Exercise: An ordered, non-empty sequence of Steps with unique ids.
  - Cursor: The current step index plus the one-way HasStarted flag.
  - GestureSnapshot: A read-only copy of the pointer state machine.
  - ExitReport / CompletionReport: What the engine tells the progress collaborator.
*/
package domain
