// Package chat is the stateless chat proxy behind the assistant widget.
//
// POST /api/chat takes {"message": "..."}, forwards the text to the LLM API
// as a single user turn and answers {"reply": "...", "reply_html": "..."}.
// The proxy keeps no session and does not authenticate its caller. Failures
// are answered with a 5xx status and {"error": {"message": "..."}}.
package chat
