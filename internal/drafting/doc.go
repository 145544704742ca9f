/*
Package drafting adapts the native drafting console tool to the pipeline's
check and build interfaces.

The console tool is driven entirely by script files: the same executable
validates a drawing (reporting its external-reference count) and packages
it for shipping (optionally publishing a PDF set). ConsoleTool wraps the
invocation, XrefCheck implements pipeline.ItemCheck on top of it, and
ScriptBuild implements pipeline.BuildAction.

Drawings held open by another session leave a .dwl lock file alongside the
.dwg; XrefCheck rejects those without invoking the tool.
*/
package drafting
