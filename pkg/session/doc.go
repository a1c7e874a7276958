/*
Package session implements the per-session controller.

A Controller owns the cursor of one exercise run and is the only writer of the
step index. It drives three asynchronous pipelines (narration, visuals and
question answering) and a pointer gesture machine, and it guarantees that a
late result for a step the user already left never reaches what they see or
hear.

Lifecycle:

	NotStarted --Activate--> Active --Advance past last--> Completed
	                           |
	                           +--------Exit-------------> Exited

Activate must follow a user action: it is the only call that resumes the
shared audio output.
*/
package session
