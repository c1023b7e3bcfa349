// Package chat implements the shell's canned-response assistant. Replies
// come from keyword rules; there is no network and no model behind it.
package chat

import (
	"strings"
	"time"
)

// Exchange is one question and its reply
type Exchange struct {
	When  time.Time
	Input string
	Reply string
}

type rule struct {
	keywords []string
	reply    string
}

var rules = []rule{
	{[]string{"hello", "hi", "hey"}, "Hello! Ask me about shell commands or ValyxoScript."},
	{[]string{"script", "valyxoscript"}, "Start the script console with 'enter script'. See 'man script' for the statement forms."},
	{[]string{"loop", "for", "while"}, "Loops: 'for i in 1 to 10 { ... }' and 'while [cond] { ... }'. They share an iteration ceiling, so runaway loops stop themselves."},
	{[]string{"function", "func"}, "Define functions with 'func name(params) { ... }' and call them by name. Calls only print; variable changes inside roll back."},
	{[]string{"job", "background"}, "Append '&' to run: 'run build.vx &'. Check with 'jobs', stop with 'kill <id>'."},
	{[]string{"snippet"}, "Snippets store script fragments: 'snippet add', 'snippet list', 'snippet run'. See 'man snippet'."},
	{[]string{"theme", "color"}, "Change colors with 'theme set <name>'. 'theme list' shows what is available."},
	{[]string{"plugin", "lua"}, "Drop .lua files in the plugins directory; they register commands via valyxo.register. 'plugin reload' rescans."},
	{[]string{"git"}, "The 'git' command passes through to the system git inside the workspace."},
	{[]string{"error", "fail", "broken"}, "Script errors show a code, the line and usually a hint. Read the hint first; it names the fix."},
	{[]string{"bye", "exit", "quit"}, "Type 'exit' to leave chat mode."},
	{[]string{"help"}, "Try 'help' for the command list or 'man <command>' for details."},
}

const fallback = "I can help with shell commands, scripts, jobs, snippets, themes and plugins. Try asking about one of those, or see 'help'."

// Assistant answers questions and keeps the conversation log
type Assistant struct {
	log []Exchange
}

// NewAssistant creates an assistant with an empty log
func NewAssistant() *Assistant {
	return &Assistant{}
}

// Respond produces a reply for the input and records the exchange
func (a *Assistant) Respond(input string) string {
	reply := match(input)
	a.log = append(a.log, Exchange{When: time.Now(), Input: input, Reply: reply})
	return reply
}

// Log returns the conversation so far
func (a *Assistant) Log() []Exchange {
	return a.log
}

func match(input string) string {
	lowered := strings.ToLower(input)
	for _, r := range rules {
		for _, keyword := range r.keywords {
			if containsWord(lowered, keyword) {
				return r.reply
			}
		}
	}
	return fallback
}

// containsWord matches whole words so "history" does not trigger "hi"
func containsWord(text, word string) bool {
	for _, field := range strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		if field == word {
			return true
		}
	}
	return false
}
