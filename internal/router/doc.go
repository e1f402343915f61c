// Package router moves messages between participants through the shared
// filesystem mailbox.
//
// Each participant owns a drop-file under the workspace outbox. The router
// watches the outbox with fsnotify and debounces writes per drop-file:
// agents write incrementally, so content is only routed once a file has
// gone quiet for the configured window. A settled non-empty drop-file is
// appended to the chat log, cleared, and fanned out to every other live
// participant wrapped in a delimited envelope naming the origin.
//
// Operator messages enter through SubmitUserMessage and fan out to all
// participants. The router also watches the shared plan file and publishes
// a PlanReadyEvent the first time it becomes non-empty.
package router
